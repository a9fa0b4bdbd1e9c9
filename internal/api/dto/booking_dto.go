package dto

import (
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

type CreateBookingRequest struct {
	UserID         string   `json:"user_id" binding:"required"`
	FromLanguageID string   `json:"from_language_id"`
	Immediate      bool     `json:"immediate"`
	Due            string   `json:"due"`
	Duration       int      `json:"duration"`
	JobFor         []string `json:"job_for"`
	CustomerPhone  bool     `json:"customer_phone_type"`
	CustomerOnSite bool     `json:"customer_physical_type"`
	Town           string   `json:"town"`
	Reference      string   `json:"reference"`
	UserEmail      string   `json:"user_email"`
	ByAdmin        bool     `json:"by_admin"`
}

type UpdateBookingRequest struct {
	Due             string `json:"due"`
	FromLanguageID  string `json:"from_language_id"`
	TranslatorID    string `json:"translator_id"`
	TranslatorEmail string `json:"translator_email"`
	Status          string `json:"status"`
	SessionTime     string `json:"session_time"`
	AdminComments   string `json:"admin_comments"`
	Reference       string `json:"reference"`
}

type UserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type HistoryRequest struct {
	UserID   string `form:"user_id" binding:"required"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type HistoryResponse struct {
	Jobs       []BookingDTO `json:"jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type BookingDTO struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	FromLanguageID string   `json:"from_language_id"`
	Status         string   `json:"status"`
	Immediate      bool     `json:"immediate"`
	Due            string   `json:"due"`
	Duration       int      `json:"duration"`
	Gender         string   `json:"gender,omitempty"`
	Certified      string   `json:"certified,omitempty"`
	CustomerPhone  bool     `json:"customer_phone_type"`
	CustomerOnSite bool     `json:"customer_physical_type"`
	Town           string   `json:"town,omitempty"`
	JobType        string   `json:"job_type"`
	CreatedAt      string   `json:"created_at"`
	WillExpireAt   string   `json:"will_expire_at"`
	WithdrawAt     string   `json:"withdraw_at,omitempty"`
	EndAt          string   `json:"end_at,omitempty"`
	SessionTime    string   `json:"session_time,omitempty"`
	AdminComments  string   `json:"admin_comments,omitempty"`
	Reference      string   `json:"reference,omitempty"`
}

type BookingListResponse struct {
	Emergency []BookingDTO `json:"emergency_jobs"`
	Normal    []BookingDTO `json:"normal_jobs"`
}

type ChangeDTO struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// FromDomain maps a booking into its wire shape.
func FromDomain(job *domain.Job) BookingDTO {
	d := BookingDTO{
		ID:             job.ID,
		UserID:         job.UserID,
		FromLanguageID: job.FromLanguageID,
		Status:         string(job.Status),
		Immediate:      job.Immediate,
		Due:            job.Due.Format(time.RFC3339),
		Duration:       job.Duration,
		Gender:         string(job.Gender),
		Certified:      string(job.Certified),
		CustomerPhone:  job.CustomerPhone,
		CustomerOnSite: job.CustomerOnSite,
		Town:           job.Town,
		JobType:        string(job.JobType),
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		WillExpireAt:   job.WillExpireAt.Format(time.RFC3339),
		SessionTime:    job.SessionTime,
		AdminComments:  job.AdminComments,
		Reference:      job.Reference,
	}
	if job.WithdrawAt != nil {
		d.WithdrawAt = job.WithdrawAt.Format(time.RFC3339)
	}
	if job.EndAt != nil {
		d.EndAt = job.EndAt.Format(time.RFC3339)
	}
	return d
}

// FromDomainList maps a slice of bookings.
func FromDomainList(jobs []domain.Job) []BookingDTO {
	out := make([]BookingDTO, len(jobs))
	for i := range jobs {
		out[i] = FromDomain(&jobs[i])
	}
	return out
}

// NormalizeJobFor folds legacy tag spellings into their canonical
// form.
func NormalizeJobFor(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "certified_in_helth" {
			tag = "certified_in_health"
		}
		out = append(out, tag)
	}
	return out
}
