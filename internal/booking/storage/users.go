package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/match"
)

const userColumns = `
	id, email, name, mobile, role, status, translator_type,
	translator_level, gender, consumer_type, town,
	opt_out_notifications, opt_out_emergency, opt_out_nighttime
`

// GetUserByID loads a user with their working languages.
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := s.db.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.attachLanguages(ctx, []*domain.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail resolves a user by email address.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if err := s.attachLanguages(ctx, []*domain.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// QueryTranslators returns active translators matching the criteria.
// Gender and level narrowing happen here so the candidate set stays
// small; the caller still runs the full eligibility predicate.
func (s *Storage) QueryTranslators(ctx context.Context, criteria match.TranslatorCriteria) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = ?
		  AND status = ?
	`
	args := []interface{}{domain.RoleTranslator, domain.UserActive}

	if criteria.Type != "" {
		query += " AND translator_type = ?"
		args = append(args, criteria.Type)
	}
	if criteria.LanguageID != "" {
		query += " AND id IN (SELECT user_id FROM user_languages WHERE language_id = ?)"
		args = append(args, criteria.LanguageID)
	}
	if criteria.Gender != "" {
		query += " AND gender = ?"
		args = append(args, criteria.Gender)
	}
	if len(criteria.Levels) > 0 {
		query += " AND translator_level IN (?)"
		args = append(args, criteria.Levels)
	}
	if len(criteria.ExcludeIDs) > 0 {
		query += " AND id NOT IN (?)"
		args = append(args, criteria.ExcludeIDs)
	}
	query += " ORDER BY name ASC"

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build translator query: %w", err)
	}
	query = s.db.Rebind(query)

	var users []domain.User
	if err := s.db.SelectContext(ctx, &users, query, expanded...); err != nil {
		return nil, fmt.Errorf("failed to query translators: %w", err)
	}

	refs := make([]*domain.User, len(users))
	for i := range users {
		refs[i] = &users[i]
	}
	if err := s.attachLanguages(ctx, refs); err != nil {
		return nil, err
	}
	return users, nil
}

// LoadBlacklist returns the translator ids a customer has blocked.
func (s *Storage) LoadBlacklist(ctx context.Context, customerID string) ([]string, error) {
	var ids []string
	query := `SELECT translator_id FROM blacklist WHERE user_id = $1`

	if err := s.db.SelectContext(ctx, &ids, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	return ids, nil
}

func (s *Storage) attachLanguages(ctx context.Context, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	byID := make(map[string]*domain.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = users[i]
	}

	query, args, err := sqlx.In(`SELECT user_id, language_id FROM user_languages WHERE user_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build language query: %w", err)
	}
	query = s.db.Rebind(query)

	var rows []struct {
		UserID     string `db:"user_id"`
		LanguageID string `db:"language_id"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to load user languages: %w", err)
	}
	for _, row := range rows {
		if u, ok := byID[row.UserID]; ok {
			u.Languages = append(u.Languages, row.LanguageID)
		}
	}
	return nil
}
