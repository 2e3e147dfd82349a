package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/apperrors"
	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/repository"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgInvalidCredentials   = "invalid credentials"
	msgInvalidExternalToken = "invalid external identity token"
	msgOtherGoogleAccount   = "email is linked to a different Google account"

	maxUsernameAttempts = 1000
)

type RegisterInput struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Gender          string `json:"gender" validate:"required,max=50"`
	DateOfBirth     string `json:"dateOfBirth" validate:"required"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Username        string `json:"userName" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	LoginIdentifier string `json:"loginIdentifier" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// ProfileInput overwrites the mutable profile fields. A blank UserName keeps the current one
// and a blank AvatarURL resets to the default avatar.
type ProfileInput struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	UserName    string `json:"userName"`
	Gender      string `json:"gender" validate:"max=50"`
	DateOfBirth string `json:"dateOfBirth"`
	AvatarURL   string `json:"avatarUrl" validate:"max=2048"`
}

// Profile is the owner's view of their account.
type Profile struct {
	ID                string `json:"id"`
	UserName          string `json:"userName"`
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Gender            string `json:"gender"`
	DateOfBirth       string `json:"dateOfBirth"`
	AvatarURL         string `json:"avatarUrl"`
	IsProfileComplete bool   `json:"isProfileComplete"`
}

// AuthUser is the public part of an account returned alongside a token.
type AuthUser struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	AvatarURL         string `json:"avatarUrl"`
	IsProfileComplete bool   `json:"isProfileComplete"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// AuthOptions carries the optional collaborators. Nil fields disable the feature they back.
type AuthOptions struct {
	Google  IdentityVerifier
	Avatars AvatarUploader
	Cache   *CacheService
	Audit   AuditLog
}

type AuthService struct {
	users   repository.UserRepository
	tokens  *TokenIssuer
	google  IdentityVerifier
	avatars AvatarUploader
	cache   *CacheService
	audit   AuditLog
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *TokenIssuer, opts AuthOptions, log zerolog.Logger) *AuthService {
	audit := opts.Audit
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		google:  opts.Google,
		avatars: opts.Avatars,
		cache:   opts.Cache,
		audit:   audit,
		log:     log,
		now:     time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	fields := fieldErrors{}
	fields.addStruct(in)
	if in.Username != "" {
		fields.add(utils.ValidateUsername(in.Username))
	}
	if in.Password != "" {
		fields.add(utils.ValidatePasswordStrength(in.Password))
	}
	dob, err := s.parseDateOfBirth(in.DateOfBirth)
	fields.add(err)
	if err := fields.err(); err != nil {
		return nil, err
	}

	if taken, err := s.users.EmailTaken(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, apperrors.Conflict("email is already registered")
	}
	if taken, err := s.users.UsernameTaken(ctx, in.Username, ""); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, apperrors.Conflict("username is already taken")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.timestamp()
	user := &models.User{
		ID:                uuid.NewString(),
		Username:          in.Username,
		Email:             in.Email,
		PasswordHash:      &hash,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Gender:            in.Gender,
		DateOfBirth:       dob,
		AvatarURL:         models.DefaultAvatarURL,
		IsProfileComplete: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, userConflict(err, "register")
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	s.audit.Record(ctx, models.AuditEvent{UserID: user.ID, Action: models.AuditRegister})
	return s.authResult(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.LoginIdentifier = strings.TrimSpace(in.LoginIdentifier)

	fields := fieldErrors{}
	fields.addStruct(in)
	if err := fields.err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByLogin(ctx, in.LoginIdentifier)
	if errors.Is(err, repository.ErrNotFound) {
		// Spend the same bcrypt time as a real mismatch.
		utils.VerifyPassword(in.Password, dummyHash())
		s.audit.Record(ctx, models.AuditEvent{Action: models.AuditLoginFailed})
		return nil, apperrors.Unauthenticated(msgInvalidCredentials, err)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.HasPassword() || !utils.VerifyPassword(in.Password, *user.PasswordHash) {
		s.audit.Record(ctx, models.AuditEvent{UserID: user.ID, Action: models.AuditLoginFailed})
		return nil, apperrors.Unauthenticated(msgInvalidCredentials, nil)
	}

	s.audit.Record(ctx, models.AuditEvent{UserID: user.ID, Action: models.AuditLogin})
	return s.authResult(user)
}

// ExternalSignIn resolves a Google identity to a local account: by subject, then by email
// (linking the subject), else by creating a new account with a generated username.
func (s *AuthService) ExternalSignIn(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.google == nil {
		return nil, apperrors.Unauthenticated(ErrExternalSignInDisabled.Error(), ErrExternalSignInDisabled)
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperrors.Validation("idToken", "idToken is required")
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("Google ID token rejected")
		return nil, apperrors.Unauthenticated(msgInvalidExternalToken, err)
	}
	if identity.Subject == "" {
		return nil, apperrors.Unauthenticated(msgInvalidExternalToken, errors.New("token has no subject"))
	}

	user, err := s.users.FindByGoogleSubject(ctx, identity.Subject)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find by google subject: %w", err)
	}

	if user == nil && identity.Email != "" {
		user, err = s.linkByEmail(ctx, identity)
		if err != nil {
			return nil, err
		}
	}

	if user == nil {
		if identity.Email == "" {
			return nil, apperrors.Unauthenticated("Google account has no verified email", nil)
		}
		user, err = s.createExternalUser(ctx, identity)
		if err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, models.AuditEvent{UserID: user.ID, Action: models.AuditGoogleSignIn})
	return s.authResult(user)
}

func (s *AuthService) linkByEmail(ctx context.Context, identity *ExternalIdentity) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, identity.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by email: %w", err)
	}

	subject := identity.Subject
	if user.GoogleSubjectID != nil && *user.GoogleSubjectID != subject {
		s.log.Warn().Str("user_id", user.ID).Msg("Google sign-in refused: email linked to a different Google account")
		return nil, apperrors.Unauthenticated(msgOtherGoogleAccount, nil)
	}
	user.GoogleSubjectID = &subject
	user.EmailConfirmed = true
	if identity.Picture != "" {
		user.AvatarURL = identity.Picture
	}
	user.UpdatedAt = s.timestamp()

	if err := s.users.Update(ctx, user); err != nil {
		if repository.DuplicateOn(err, database.IndexUsersGoogleSubject) {
			// linked concurrently
			return s.findLinked(ctx, subject)
		}
		return nil, fmt.Errorf("link google account: %w", err)
	}
	s.invalidateProfile(ctx, user.ID)

	s.log.Info().Str("user_id", user.ID).Msg("Google account linked")
	s.audit.Record(ctx, models.AuditEvent{UserID: user.ID, Action: models.AuditGoogleLinked})
	return user, nil
}

func (s *AuthService) createExternalUser(ctx context.Context, identity *ExternalIdentity) (*models.User, error) {
	firstName, lastName := splitName(identity.Name)
	avatar := identity.Picture
	if avatar == "" {
		avatar = models.DefaultAvatarURL
	}
	subject := identity.Subject
	now := s.timestamp()

	user := &models.User{
		ID:                uuid.NewString(),
		Email:             identity.Email,
		FirstName:         firstName,
		LastName:          lastName,
		AvatarURL:         avatar,
		GoogleSubjectID:   &subject,
		EmailConfirmed:    true,
		IsProfileComplete: false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	base := utils.UsernameBase(identity.Email, firstName+lastName)
	for n := 0; n < maxUsernameAttempts; n++ {
		candidate := utils.WithSuffix(base, n)
		taken, err := s.users.UsernameTaken(ctx, candidate, "")
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			continue
		}

		user.Username = candidate
		err = s.users.Add(ctx, user)
		switch {
		case err == nil:
			s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User created from Google sign-in")
			return user, nil
		case repository.DuplicateOn(err, database.IndexUsersUsername):
			continue
		case repository.DuplicateOn(err, database.IndexUsersGoogleSubject):
			return s.findLinked(ctx, subject)
		default:
			return nil, userConflict(err, "create google user")
		}
	}
	return nil, fmt.Errorf("no free username for base %q", base)
}

// findLinked loads the user that won a concurrent link of subject.
func (s *AuthService) findLinked(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.users.FindByGoogleSubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("find linked google user: %w", err)
	}
	return user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	key := CacheKey("profile", userID)

	var cached Profile
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("⚠️ Profile cache read failed")
	}
	if hit {
		return &cached, nil
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := toProfile(user)
	if err := s.cache.Set(ctx, key, profile); err != nil {
		s.log.Warn().Err(err).Msg("⚠️ Profile cache write failed")
	}
	return profile, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*Profile, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.UserName = strings.TrimSpace(in.UserName)
	in.Gender = strings.TrimSpace(in.Gender)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)

	fields := fieldErrors{}
	fields.addStruct(in)
	if in.UserName != "" {
		fields.add(utils.ValidateUsername(in.UserName))
	}
	dob, err := s.parseDateOfBirth(in.DateOfBirth)
	fields.add(err)
	if err := fields.err(); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.UserName != "" && !strings.EqualFold(in.UserName, user.Username) {
		taken, err := s.users.UsernameTaken(ctx, in.UserName, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, apperrors.Conflict("username is already taken")
		}
	}
	if in.UserName != "" {
		user.Username = in.UserName
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Gender = in.Gender
	user.DateOfBirth = dob
	user.AvatarURL = in.AvatarURL
	if user.AvatarURL == "" {
		user.AvatarURL = models.DefaultAvatarURL
	}
	user.IsProfileComplete = true
	user.UpdatedAt = s.timestamp()

	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditEvent{UserID: user.ID, Action: models.AuditProfileUpdate})
	return toProfile(user), nil
}

// UploadAvatar stores the image with the avatar uploader and makes it the account avatar.
func (s *AuthService) UploadAvatar(ctx context.Context, userID string, file io.Reader) (*Profile, error) {
	if s.avatars == nil {
		return nil, apperrors.Validation("file", "avatar upload is not configured")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.UploadAvatar(ctx, user.ID, file)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	user.AvatarURL = url
	user.UpdatedAt = s.timestamp()
	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

// Logout keeps no server-side state; the client discards its token. A valid token is
// only used to attribute the audit event.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return
	}
	s.audit.Record(ctx, models.AuditEvent{UserID: claims.Subject, Action: models.AuditLogout})
}

func (s *AuthService) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) saveUser(ctx context.Context, user *models.User) error {
	err := s.users.Update(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("user not found")
	}
	if err != nil {
		return userConflict(err, "update user")
	}
	s.invalidateProfile(ctx, user.ID)
	return nil
}

func (s *AuthService) invalidateProfile(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, CacheKey("profile", userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("⚠️ Profile cache invalidation failed")
	}
}

func (s *AuthService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: toAuthUser(user)}, nil
}

func (s *AuthService) parseDateOfBirth(value string) (*time.Time, error) {
	dob, err := utils.ParseDate("dateOfBirth", value)
	if err != nil || dob == nil {
		return dob, err
	}
	if dob.After(s.now().UTC()) {
		return nil, &utils.ValidationError{Field: "dateOfBirth", Message: "Date of birth cannot be in the future"}
	}
	return dob, nil
}

// timestamp is truncated to the store's microsecond precision so returned values match reads.
func (s *AuthService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// userConflict maps unique index violations on users to conflicts and wraps anything else.
func userConflict(err error, op string) error {
	switch {
	case repository.DuplicateOn(err, database.IndexUsersEmail):
		return apperrors.Conflict("email is already registered")
	case repository.DuplicateOn(err, database.IndexUsersUsername):
		return apperrors.Conflict("username is already taken")
	case repository.DuplicateOn(err, database.IndexUsersGoogleSubject):
		return apperrors.Conflict("Google account is already linked to another user")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func toProfile(u *models.User) *Profile {
	return &Profile{
		ID:                u.ID,
		UserName:          u.Username,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Gender:            u.Gender,
		DateOfBirth:       utils.FormatDate(u.DateOfBirth),
		AvatarURL:         u.AvatarURL,
		IsProfileComplete: u.IsProfileComplete,
	}
}

func toAuthUser(u *models.User) AuthUser {
	return AuthUser{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		AvatarURL:         u.AvatarURL,
		IsProfileComplete: u.IsProfileComplete,
	}
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = utils.HashPassword("mindnest-timing-equalizer-1!")
	})
	return dummy
}
