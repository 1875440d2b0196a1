package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

type RegisterCaregiverInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	MemberID string
}

type RegisterStaffInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

// TokenClaims is what middleware extracts from a verified access
// token.
type TokenClaims struct {
	UserID uuid.UUID
	Role   string
}

type AuthService interface {
	RegisterCaregiver(ctx context.Context, input RegisterCaregiverInput) (*types.User, error)
	// RegisterStaff creates nurse/doctor/admin accounts; admin only.
	RegisterStaff(ctx context.Context, actor Actor, input RegisterStaffInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	VerifyToken(tokenString string) (*TokenClaims, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	caregiverRepo repos.CaregiverProfileRepo
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, caregiverRepo repos.CaregiverProfileRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	serviceLog := log.With("service", "AuthService")
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		caregiverRepo: caregiverRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) validateCredentials(email, password, fullName string) error {
	if email == "" || !strings.Contains(email, "@") {
		return apierr.Validation("a valid email address is required")
	}
	if len(password) < 8 {
		return apierr.Validation("password must be at least 8 characters")
	}
	if fullName == "" {
		return apierr.Validation("full name is required")
	}
	return nil
}

func (as *authService) createUser(ctx context.Context, tx *gorm.DB, email, password, fullName, phone, role string) (*types.User, error) {
	existing, err := as.userRepo.GetByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.Validation("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &types.User{
		Email:    email,
		Password: string(hash),
		FullName: fullName,
		Phone:    phone,
		Role:     role,
	}
	if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterCaregiver creates the account and its caregiver profile in
// one transaction so a login can always resolve a profile.
func (as *authService) RegisterCaregiver(ctx context.Context, input RegisterCaregiverInput) (*types.User, error) {
	email := normalizeEmail(input.Email)
	if err := as.validateCredentials(email, input.Password, input.FullName); err != nil {
		return nil, err
	}

	var user *types.User
	err := as.db.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = as.createUser(ctx, tx, email, input.Password, input.FullName, input.Phone, types.RoleCaregiver)
		if err != nil {
			return err
		}
		_, err = as.caregiverRepo.Create(ctx, tx, []*types.CaregiverProfile{{
			UserID:   user.ID,
			FullName: input.FullName,
			Phone:    input.Phone,
			MemberID: input.MemberID,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("Registered caregiver account", "user_id", user.ID)
	return user, nil
}

func (as *authService) RegisterStaff(ctx context.Context, actor Actor, input RegisterStaffInput) (*types.User, error) {
	if actor.Role != types.RoleAdmin {
		return nil, apierr.Forbidden("only administrators may create staff accounts")
	}
	if !types.CanAdminister(input.Role) {
		return nil, apierr.Validation("invalid staff role %q", input.Role)
	}
	email := normalizeEmail(input.Email)
	if err := as.validateCredentials(email, input.Password, input.FullName); err != nil {
		return nil, err
	}

	var user *types.User
	err := as.db.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = as.createUser(ctx, tx, email, input.Password, input.FullName, input.Phone, input.Role)
		return err
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("Registered staff account", "user_id", user.ID, "role", input.Role)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = normalizeEmail(email)
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apierr.Validation("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apierr.Validation("invalid email or password")
	}

	token, err := as.signToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (as *authService) signToken(user *types.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(as.accessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) VerifyToken(tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierr.Forbidden("unexpected token signing method")
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierr.Forbidden("invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierr.Forbidden("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apierr.Forbidden("invalid token subject")
	}
	return &TokenClaims{UserID: userID, Role: role}, nil
}
