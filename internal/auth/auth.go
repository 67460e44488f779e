package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nowen/nowen/internal/logger"
)

// DefaultSessionTTL is used when the service is built with a zero TTL.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnknownAdmin       = errors.New("unknown admin")
)

// Session is an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	AdminID   string    `json:"-"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service provides authentication operations over the admins and tokens tables.
type Service struct {
	db     *sql.DB
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewService creates an auth service.
func NewService(db *sql.DB, ttl time.Duration, log logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{db: db, ttl: ttl, logger: log, now: time.Now}
}

// EnsureAdmin creates the initial admin account if no admin exists.
// With an empty password a random one is generated and logged once.
// Returns true if a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return false, fmt.Errorf("counting admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	generated := password == ""
	if generated {
		var err error
		if password, err = generateToken(12); err != nil {
			return false, fmt.Errorf("generating password: %w", err)
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}

	now := s.timestamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), username, hash, now, now)
	if err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	if generated {
		s.logger.Warn("created admin account with a generated password, change it after first login",
			logger.String("username", username),
			logger.String("password", password))
	} else {
		s.logger.Info("created admin account", logger.String("username", username))
	}
	return true, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE username = ?
	`, username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("querying admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), prehashPassword(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.issue(ctx, id, username)
}

func (s *Service) issue(ctx context.Context, adminID, username string) (Session, error) {
	token, err := generateToken(32)
	if err != nil {
		return Session{}, fmt.Errorf("generating session token: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tokens (token, admin_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, token, adminID, now.Format(time.RFC3339), expiresAt.Format(time.RFC3339))
	if err != nil {
		return Session{}, fmt.Errorf("creating session: %w", err)
	}

	return Session{Token: token, AdminID: adminID, Username: username, ExpiresAt: expiresAt}, nil
}

// ValidateToken returns the session behind token. Expired tokens are
// deleted and reported as ErrSessionExpired.
func (s *Service) ValidateToken(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidSession
	}

	var adminID, username, expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT t.admin_id, a.username, t.expires_at
		FROM tokens t JOIN admins a ON a.id = t.admin_id
		WHERE t.token = ?
	`, token).Scan(&adminID, &username, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("querying session: %w", err)
	}

	expires, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("parsing expiry: %w", err)
	}

	if !s.now().UTC().Before(expires) {
		if err := s.Logout(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session",
				logger.String("admin_id", adminID),
				logger.Error(err))
		}
		return Session{}, ErrSessionExpired
	}

	return Session{Token: token, AdminID: adminID, Username: username, ExpiresAt: expires}, nil
}

// Logout deletes a session.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE token = ?", token)
	return err
}

// ChangePassword verifies the current password, stores the new one and
// revokes every other session of the admin.
func (s *Service) ChangePassword(ctx context.Context, sess Session, current, next string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM admins WHERE id = ?", sess.AdminID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidSession
	}
	if err != nil {
		return fmt.Errorf("querying admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), prehashPassword(current)); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.setPassword(ctx, sess.AdminID, next); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM tokens WHERE admin_id = ? AND token <> ?", sess.AdminID, sess.Token)
	if err != nil {
		return fmt.Errorf("revoking sessions: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for username and revokes all of its
// sessions. Used from the CLI when the password is lost.
func (s *Service) ResetPassword(ctx context.Context, username, password string) error {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM admins WHERE username = ?", username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownAdmin
	}
	if err != nil {
		return fmt.Errorf("querying admin: %w", err)
	}

	if err := s.setPassword(ctx, id, password); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE admin_id = ?", id); err != nil {
		return fmt.Errorf("revoking sessions: %w", err)
	}
	return nil
}

func (s *Service) setPassword(ctx context.Context, adminID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?",
		hash, s.timestamp(), adminID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// CleanExpiredTokens removes all expired sessions and returns how many.
func (s *Service) CleanExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tokens WHERE expires_at <= ?
	`, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	return res.RowsAffected()
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehashPassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// prehashPassword hashes the password with SHA-256 before bcrypt so that
// passwords longer than 72 bytes are not silently truncated.
func prehashPassword(password string) []byte {
	h := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(h[:]))
}

func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
