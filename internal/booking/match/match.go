// Package match decides which translators are eligible for which
// jobs. The predicate is symmetric: potential jobs for a translator
// and potential translators for a job reduce to the same checks
// applied in either direction.
package match

import (
	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// RequiredTranslatorType maps a job's payment class to the translator
// class allowed to take it. Unknown job types fall back to volunteers.
func RequiredTranslatorType(jobType domain.JobType) domain.TranslatorType {
	switch jobType {
	case domain.JobTypePaid:
		return domain.TranslatorProfessional
	case domain.JobTypeRWS:
		return domain.TranslatorRWS
	case domain.JobTypeUnpaid:
		return domain.TranslatorVolunteer
	default:
		return domain.TranslatorVolunteer
	}
}

// AcceptableLevels expands a job's certification requirement into the
// set of translator levels that satisfy it. An absent requirement
// accepts every level.
func AcceptableLevels(cert domain.Certification) []domain.TranslatorLevel {
	switch cert {
	case domain.CertYes, domain.CertBoth:
		return []domain.TranslatorLevel{
			domain.LevelCertified,
			domain.LevelCertifiedLaw,
			domain.LevelCertifiedHealth,
		}
	case domain.CertLaw, domain.CertNormalLaw:
		return []domain.TranslatorLevel{domain.LevelCertifiedLaw}
	case domain.CertHealth, domain.CertNormalHealth:
		return []domain.TranslatorLevel{domain.LevelCertifiedHealth}
	case domain.CertNormal:
		return []domain.TranslatorLevel{
			domain.LevelLayman,
			domain.LevelReadCourses,
		}
	default:
		return append([]domain.TranslatorLevel(nil), domain.AllTranslatorLevels...)
	}
}

// Eligible reports whether translator may take job posted by a
// customer living in customerTown. blacklisted holds the translator
// ids the job's owner has excluded.
func Eligible(job *domain.Job, translator *domain.User, customerTown string, blacklisted []string) bool {
	if translator.Role != domain.RoleTranslator || translator.Status != domain.UserActive {
		return false
	}
	if translator.TranslatorType != RequiredTranslatorType(job.JobType) {
		return false
	}
	if !translator.SpeaksLanguage(job.FromLanguageID) {
		return false
	}
	if job.Gender != domain.GenderAny && translator.Gender != job.Gender {
		return false
	}
	if !levelAccepted(job.Certified, translator.TranslatorLevel) {
		return false
	}
	for _, id := range blacklisted {
		if id == translator.ID {
			return false
		}
	}
	// Physical-only jobs need the translator in the customer's town.
	// Phone-capable or mixed-mode jobs skip the town constraint.
	if job.PhysicalOnly() {
		town := job.Town
		if town == "" {
			town = customerTown
		}
		if translator.Town == "" || translator.Town != town {
			return false
		}
	}
	return true
}

func levelAccepted(cert domain.Certification, level domain.TranslatorLevel) bool {
	for _, l := range AcceptableLevels(cert) {
		if l == level {
			return true
		}
	}
	return false
}
