package domain

import "time"

// JobStatus is the lifecycle state of a booking.
type JobStatus string

const (
	StatusPending               JobStatus = "pending"
	StatusAssigned              JobStatus = "assigned"
	StatusStarted               JobStatus = "started"
	StatusCompleted             JobStatus = "completed"
	StatusWithdrawBefore24      JobStatus = "withdrawbefore24"
	StatusWithdrawAfter24       JobStatus = "withdrawafter24"
	StatusTimedOut              JobStatus = "timedout"
	StatusNotCarriedOutCustomer JobStatus = "not_carried_out_customer"
)

// Valid reports whether s is one of the known lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusStarted, StatusCompleted,
		StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut,
		StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// Terminal reports whether a job in state s has finished its cycle.
// Terminal jobs are kept for history and can only re-enter the
// lifecycle through an explicit reopen.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24,
		StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// JobType determines which class of translator a job is open to.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
)

// Gender is an optional constraint on the translator.
type Gender string

const (
	GenderAny    Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Certification is the certification requirement carried by a job.
type Certification string

const (
	CertNone         Certification = ""
	CertNormal       Certification = "normal"
	CertYes          Certification = "yes"
	CertLaw          Certification = "law"
	CertHealth       Certification = "health"
	CertBoth         Certification = "both"
	CertNormalLaw    Certification = "n_law"
	CertNormalHealth Certification = "n_health"
)

// Job is a single interpretation booking request.
type Job struct {
	ID              string        `db:"id"`
	UserID          string        `db:"user_id"`
	FromLanguageID  string        `db:"from_language_id"`
	Status          JobStatus     `db:"status"`
	Immediate       bool          `db:"immediate"`
	Due             time.Time     `db:"due"`
	Duration        int           `db:"duration"` // minutes
	Gender          Gender        `db:"gender"`
	Certified       Certification `db:"certified"`
	CustomerPhone   bool          `db:"customer_phone_type"`
	CustomerOnSite  bool          `db:"customer_physical_type"`
	Town            string        `db:"town"`
	JobType         JobType       `db:"job_type"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
	WillExpireAt    time.Time     `db:"will_expire_at"`
	WithdrawAt      *time.Time    `db:"withdraw_at"`
	EndAt           *time.Time    `db:"end_at"`
	SessionTime     string        `db:"session_time"` // "H:M:S"
	AdminComments   string        `db:"admin_comments"`
	Reference       string        `db:"reference"`
	UserEmail       string        `db:"user_email"` // overrides the owner's email when set
	Flagged         bool          `db:"flagged"`
	ManuallyHandled bool          `db:"manually_handled"`
	ByAdmin         bool          `db:"by_admin"`
	RemindersSent   bool          `db:"reminders_sent"`
}

// PhysicalOnly reports whether the job requires the translator on
// site with no phone fallback. Such jobs are restricted to translators
// in the customer's town.
func (j *Job) PhysicalOnly() bool {
	return j.CustomerOnSite && !j.CustomerPhone
}
