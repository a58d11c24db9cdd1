package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/internal/data/repository"
	"room-booking/internal/dto/request"
	"room-booking/pkg/apperr"
	"room-booking/pkg/database"
	"room-booking/pkg/token"
	"room-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Identity is what the identity provider knows about a caller.
type Identity struct {
	OpenID  string
	UnionID string
}

type ResolveResult struct {
	User   *entity.User
	Tokens *token.Pair
	Action string
}

type AccountService interface {
	Login(ctx context.Context, req *request.LoginRequest, meta SessionMeta) (*ResolveResult, error)
	ResolveOrCreate(ctx context.Context, identity Identity, profile entity.Profile, meta SessionMeta) (*ResolveResult, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type accountService struct {
	db       database.PgxIface
	repo     *repository.Repository
	identity IdentityProvider
	tokens   TokenIssuer
	sessions SessionService
	log      *zap.Logger
	now      func() time.Time
}

func NewAccountService(
	db database.PgxIface,
	repo *repository.Repository,
	identity IdentityProvider,
	tokens TokenIssuer,
	sessions SessionService,
	log *zap.Logger,
) AccountService {
	return &accountService{
		db:       db,
		repo:     repo,
		identity: identity,
		tokens:   tokens,
		sessions: sessions,
		log:      log.With(zap.String("service", "account")),
		now:      time.Now,
	}
}

func (s *accountService) Login(ctx context.Context, req *request.LoginRequest, meta SessionMeta) (*ResolveResult, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, apperr.Validation(errs)
	}

	session, err := s.identity.Exchange(ctx, req.Code)
	if err != nil {
		s.log.Warn("Identity exchange failed", zap.Error(err))
		return nil, err
	}

	profile := entity.Profile{
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		Gender:    req.Gender,
		Country:   req.Country,
		Province:  req.Province,
		City:      req.City,
		Language:  req.Language,
		Phone:     req.Phone,
		Email:     req.Email,
	}

	return s.ResolveOrCreate(ctx, Identity{OpenID: session.OpenID, UnionID: session.UnionID}, profile, meta)
}

// ResolveOrCreate writes the user, the session and the audit row in one
// transaction; a failure anywhere leaves nothing behind.
func (s *accountService) ResolveOrCreate(ctx context.Context, identity Identity, profile entity.Profile, meta SessionMeta) (*ResolveResult, error) {
	if errs := validateIdentity(identity, profile); len(errs) > 0 {
		s.log.Warn("Profile rejected", zap.Any("errors", errs))
		return nil, apperr.Validation(errs)
	}

	result := &ResolveResult{}
	err := database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		users := s.repo.User.WithTx(tx)
		now := s.now()

		user, err := users.LockByOpenID(ctx, identity.OpenID)
		if err != nil {
			return err
		}

		if user == nil {
			candidate := newUser(identity, profile, now)
			inserted, err := users.InsertIfAbsent(ctx, candidate)
			if err != nil {
				return err
			}
			if inserted {
				user = candidate
				result.Action = ActionCreated
			} else {
				// lost the race to a concurrent first login
				user, err = users.LockByOpenID(ctx, identity.OpenID)
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("user %s missing after insert conflict", identity.OpenID)
				}
			}
		}

		if result.Action != ActionCreated {
			if user.IsDeleted || !user.IsActive {
				return apperr.New(apperr.KindInvalidState, "Account is disabled")
			}
			user.ApplyProfile(profile)
			if identity.UnionID != "" {
				user.UnionID = &identity.UnionID
			}
			user.UpdatedAt = now
			if err := users.UpdateProfile(ctx, user); err != nil {
				return err
			}
			result.Action = ActionUpdated
		}

		pair, err := s.tokens.Issue(user.ID, user.OpenID)
		if err != nil {
			return fmt.Errorf("issue tokens: %w", err)
		}

		if _, err := s.sessions.CreateSession(ctx, tx, user.ID, pair, meta); err != nil {
			return err
		}

		if err := s.audit(ctx, tx, user, result.Action, meta, now); err != nil {
			return err
		}

		result.User = user
		result.Tokens = pair
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in",
		zap.String("user_id", result.User.ID.String()),
		zap.String("action", result.Action),
	)
	return result, nil
}

// DeleteUser soft-deletes the account and revokes every session it holds.
func (s *accountService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	var revoked int64
	err := database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		deleted, err := s.repo.User.WithTx(tx).SoftDelete(ctx, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.New(apperr.KindNotFound, "User not found")
		}

		revoked, err = s.repo.Session.WithTx(tx).DeactivateAllByUser(ctx, userID)
		if err != nil {
			return err
		}

		id := userID.String()
		return s.repo.AuditLog.WithTx(tx).Create(ctx, &entity.AuditLog{
			BaseSimple:   entity.NewBaseSimple(s.now()),
			UserID:       &userID,
			Action:       entity.AuditActionUserDeleted,
			ResourceType: "user",
			ResourceID:   &id,
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("User soft-deleted",
		zap.String("user_id", userID.String()),
		zap.Int64("sessions_revoked", revoked),
	)
	return nil
}

func (s *accountService) audit(ctx context.Context, q database.Querier, user *entity.User, action string, meta SessionMeta, now time.Time) error {
	auditAction := entity.AuditActionLoginUpdated
	if action == ActionCreated {
		auditAction = entity.AuditActionLoginCreated
	}

	detail, err := json.Marshal(map[string]string{
		"nickname":   user.Nickname,
		"user_agent": meta.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}

	id := user.ID.String()
	d := string(detail)
	return s.repo.AuditLog.WithTx(q).Create(ctx, &entity.AuditLog{
		BaseSimple:   entity.NewBaseSimple(now),
		UserID:       &user.ID,
		Action:       auditAction,
		ResourceType: "user",
		ResourceID:   &id,
		Detail:       &d,
		IPAddress:    optional(meta.IPAddress),
	})
}

func validateIdentity(identity Identity, profile entity.Profile) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(identity.OpenID) == "" {
		errs["openid"] = "This field is required"
	}
	if strings.TrimSpace(profile.Nickname) == "" {
		errs["nickname"] = "This field is required"
	}
	if strings.TrimSpace(profile.AvatarURL) == "" {
		errs["avatar_url"] = "This field is required"
	}
	return errs
}

func newUser(identity Identity, profile entity.Profile, now time.Time) *entity.User {
	user := &entity.User{
		Base:     entity.NewBase(now),
		OpenID:   identity.OpenID,
		Role:     entity.RoleCustomer,
		IsActive: true,
	}
	if identity.UnionID != "" {
		user.UnionID = &identity.UnionID
	}
	user.ApplyProfile(profile)
	return user
}
