package model

// GenerateRequest содержит входные данные для заполнения шаблона.
type GenerateRequest struct {
	Filename       string
	RunningNumbers string
	Placeholder    string
	Template       []byte
	ItemsPerSlide  int
}

// GenerateResult содержит заполненную презентацию.
type GenerateResult struct {
	Filename string
	Document []byte
	Slides   int
	Codes    int
}
