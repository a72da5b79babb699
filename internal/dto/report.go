package dto

import "time"

type Report struct {
	Portfolio   string    `json:"portfolio"`
	Format      string    `json:"format"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ReportRequest struct {
	Format string `query:"format" validate:"omitempty,oneof=md html"`
	WithAI bool   `query:"ai"`
}
