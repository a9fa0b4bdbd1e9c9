package domain

// UserRole separates the three actors of the marketplace.
type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleTranslator UserRole = "translator"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

// UserStatus marks whether an account may take part in matching.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

// TranslatorType mirrors the paid/rws/unpaid split on the job side.
type TranslatorType string

const (
	TranslatorProfessional TranslatorType = "professional"
	TranslatorRWS          TranslatorType = "rws_translator"
	TranslatorVolunteer    TranslatorType = "volunteer"
)

// TranslatorLevel is the certification tier a translator holds.
type TranslatorLevel string

const (
	LevelCertified       TranslatorLevel = "Certified"
	LevelCertifiedLaw    TranslatorLevel = "Certified with specialisation in law"
	LevelCertifiedHealth TranslatorLevel = "Certified with specialisation in health care"
	LevelLayman          TranslatorLevel = "Layman"
	LevelReadCourses     TranslatorLevel = "Read Translation courses"
)

// AllTranslatorLevels lists every tier, lowest to highest demand.
var AllTranslatorLevels = []TranslatorLevel{
	LevelLayman,
	LevelReadCourses,
	LevelCertified,
	LevelCertifiedLaw,
	LevelCertifiedHealth,
}

// ConsumerType decides which job type a customer's bookings get.
type ConsumerType string

const (
	ConsumerPaid ConsumerType = "paid"
	ConsumerRWS  ConsumerType = "rws_consumer"
	ConsumerNGO  ConsumerType = "ngo"
)

// User is any account in the marketplace. Translator- and
// customer-specific meta lives on the same record; which fields are
// meaningful depends on Role.
type User struct {
	ID              string          `db:"id"`
	Email           string          `db:"email"`
	Name            string          `db:"name"`
	Mobile          string          `db:"mobile"`
	Role            UserRole        `db:"role"`
	Status          UserStatus      `db:"status"`
	TranslatorType  TranslatorType  `db:"translator_type"`
	TranslatorLevel TranslatorLevel `db:"translator_level"`
	Gender          Gender          `db:"gender"`
	ConsumerType    ConsumerType    `db:"consumer_type"`
	Town            string          `db:"town"`
	Languages       []string        `db:"-"` // spoken language ids, loaded separately

	// Notification preferences. All default to false (receive everything).
	OptOutNotifications bool `db:"opt_out_notifications"`
	OptOutEmergency     bool `db:"opt_out_emergency"`
	OptOutNighttime     bool `db:"opt_out_nighttime"`
}

// SpeaksLanguage reports whether languageID is among the user's
// registered languages.
func (u *User) SpeaksLanguage(languageID string) bool {
	for _, l := range u.Languages {
		if l == languageID {
			return true
		}
	}
	return false
}
