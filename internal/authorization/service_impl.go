package authorization

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectCustomer    = "customer"
	ObjectReward      = "reward"
	ObjectVisit       = "visit"
	ObjectTransaction = "transaction"
	ObjectToken       = "token"
	ObjectAuditLog    = "audit_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionDelete = "delete"
	ActionRedeem = "redeem"
	ActionManage = "manage"
)

// ErrForbidden is returned when the caller role is not allowed to perform
// the requested action.
var ErrForbidden = errors.New("forbidden")

// Service answers role-based authorization questions for tenant-scoped
// operations. Tenancy itself is enforced by the repositories; this service
// only gates actions by role.
type Service interface {
	Authorize(role, object, action string) error
}

type service struct {
	enforcer *casbin.Enforcer
	log      *zap.Logger
}

// rolePolicies is the static grant table. business_owner inherits employee
// and admin inherits business_owner via grouping rules.
var rolePolicies = [][3]string{
	{"employee", ObjectCustomer, ActionView},
	{"employee", ObjectCustomer, ActionCreate},
	{"employee", ObjectVisit, ActionCreate},
	{"employee", ObjectReward, ActionView},
	{"employee", ObjectReward, ActionRedeem},
	{"employee", ObjectTransaction, ActionView},

	{"business_owner", ObjectReward, ActionCreate},
	{"business_owner", ObjectReward, ActionDelete},
	{"business_owner", ObjectCustomer, ActionManage},
	{"business_owner", ObjectToken, ActionManage},
	{"business_owner", ObjectAuditLog, ActionView},
}

var roleInheritance = [][2]string{
	{"business_owner", "employee"},
	{"admin", "business_owner"},
}

func NewService(db *gorm.DB, log *zap.Logger) (Service, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("parse authorization model: %w", err)
	}

	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("create authorization adapter: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, p := range rolePolicies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("add policy: %w", err)
		}
	}
	for _, g := range roleInheritance {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("add role inheritance: %w", err)
		}
	}

	return &service{
		enforcer: enforcer,
		log:      log.Named("authorization.service"),
	}, nil
}

func (s *service) Authorize(role, object, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return ErrForbidden
	}

	allowed, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		s.log.Warn("authorization check failed", zap.String("role", role), zap.String("object", object), zap.String("action", action), zap.Error(err))
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

var Module = fx.Module("authorization.service",
	fx.Provide(NewService),
)
