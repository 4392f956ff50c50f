package model

import "time"

// Generation описывает запись журнала о выполненном заполнении шаблона.
type Generation struct {
	Created       time.Time `json:"created"`
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	Template      string    `json:"template"`
	Output        string    `json:"output"`
	Placeholder   string    `json:"placeholder"`
	Codes         int       `json:"codes"`
	Slides        int       `json:"slides"`
	ItemsPerSlide int       `json:"items_per_slide"`
}

// Stats содержит агрегированную статистику журнала.
type Stats struct {
	Generations int `json:"generations"`
	Codes       int `json:"codes"`
	Slides      int `json:"slides"`
	Users       int `json:"users"`
}
