package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kostkita/kostkita/backend/internal/auth"
	"github.com/kostkita/kostkita/backend/internal/payments"
	"github.com/kostkita/kostkita/backend/internal/rooms"
	"github.com/kostkita/kostkita/backend/internal/tenancy"
	"github.com/kostkita/kostkita/backend/internal/users"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	principalContextKey = "kostkita_principal"
	requestIDContextKey = "kostkita_request_id"
	requestIDHeader     = "X-Request-ID"

	defaultLoginRatePerSecond = 5
	defaultLoginBurst         = 10
	loginLimiterIdleTTL       = 15 * time.Minute
)

var (
	errMissingTokenManager   = errors.New("token manager dependency required")
	errMissingUserService    = errors.New("user service dependency required")
	errMissingTenantService  = errors.New("tenant service dependency required")
	errMissingRoomService    = errors.New("room service dependency required")
	errMissingPaymentService = errors.New("payment service dependency required")
)

// TokenManager issues and validates access tokens.
type TokenManager interface {
	IssueToken(ctx context.Context, principal auth.Principal) (string, int64, error)
	ValidateToken(token string) (auth.Principal, error)
}

// UserService manages administrator accounts.
type UserService interface {
	Authenticate(ctx context.Context, login, password string) (users.User, error)
	Register(ctx context.Context, registration users.Registration) (users.User, error)
	Profile(ctx context.Context, userID string) (users.User, error)
	UpdateProfile(ctx context.Context, userID string, update users.ProfileUpdate) (users.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// TenantService performs tenant reads and occupancy-synchronized mutations.
type TenantService interface {
	ListTenants(ctx context.Context) ([]tenancy.TenantView, error)
	GetTenant(ctx context.Context, tenantID string) (tenancy.TenantView, error)
	CreateTenant(ctx context.Context, tenant tenancy.Tenant) (tenancy.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID string, tenant tenancy.Tenant) (tenancy.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID string) error
}

// RoomService manages the room inventory.
type RoomService interface {
	List(ctx context.Context) ([]rooms.Room, error)
	Get(ctx context.Context, roomID string) (rooms.Room, error)
	Create(ctx context.Context, room rooms.Room) (rooms.Room, error)
	Update(ctx context.Context, roomID string, room rooms.Room) (rooms.Room, error)
	Delete(ctx context.Context, roomID string) error
}

// PaymentService manages payment records.
type PaymentService interface {
	List(ctx context.Context) ([]payments.Payment, error)
	ListByTenant(ctx context.Context, tenantID string) ([]payments.Payment, error)
	ListByRoom(ctx context.Context, roomID string) ([]payments.Payment, error)
	Get(ctx context.Context, paymentID string) (payments.Payment, error)
	Create(ctx context.Context, payment payments.Payment) (payments.Payment, error)
	Update(ctx context.Context, paymentID string, payment payments.Payment) (payments.Payment, error)
	Delete(ctx context.Context, paymentID string) error
}

// MetricsCollector records HTTP and login metrics and serves the exposition endpoint.
type MetricsCollector interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
	RecordLoginAttempt(result string)
}

// Dependencies wires the HTTP layer to the domain services.
type Dependencies struct {
	TokenManager       TokenManager
	UserService        UserService
	TenantService      TenantService
	RoomService        RoomService
	PaymentService     PaymentService
	Metrics            MetricsCollector
	Logger             *zap.Logger
	Environment        string
	Version            string
	AllowedOrigins     []string
	LoginRatePerSecond float64
	LoginBurst         int
	Clock              func() time.Time
}

// NewHTTPHandler builds the gin engine serving the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	switch {
	case deps.TokenManager == nil:
		return nil, errMissingTokenManager
	case deps.UserService == nil:
		return nil, errMissingUserService
	case deps.TenantService == nil:
		return nil, errMissingTenantService
	case deps.RoomService == nil:
		return nil, errMissingRoomService
	case deps.PaymentService == nil:
		return nil, errMissingPaymentService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ratePerSecond := deps.LoginRatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = defaultLoginRatePerSecond
	}
	burst := deps.LoginBurst
	if burst <= 0 {
		burst = defaultLoginBurst
	}

	handler := &httpHandler{
		tokens:      deps.TokenManager,
		users:       deps.UserService,
		tenants:     deps.TenantService,
		rooms:       deps.RoomService,
		payments:    deps.PaymentService,
		metrics:     deps.Metrics,
		logger:      logger,
		environment: deps.Environment,
		version:     deps.Version,
		now:         clock,
		startedAt:   clock(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	router.Use(corsMiddleware(deps.AllowedOrigins))

	router.GET("/health", handler.handleHealth)
	router.GET("/api", handler.handleAPIDocs)
	router.NoRoute(handler.handleNotFound)

	authGroup := router.Group("/api/auth")
	authGroup.POST("/login", loginRateLimiter(rate.Limit(ratePerSecond), burst, loginLimiterIdleTTL), handler.handleLogin)
	authGroup.POST("/register", handler.handleRegister)

	protected := router.Group("/api")
	protected.Use(handler.authorizeRequest)
	protected.GET("/auth/profile", handler.handleGetProfile)
	protected.PUT("/auth/profile", handler.handleUpdateProfile)
	protected.PUT("/auth/change-password", handler.handleChangePassword)

	protected.GET("/tenants", handler.handleListTenants)
	protected.GET("/tenants/:id", handler.handleGetTenant)
	protected.POST("/tenants", handler.handleCreateTenant)
	protected.PUT("/tenants/:id", handler.handleUpdateTenant)
	protected.DELETE("/tenants/:id", handler.handleDeleteTenant)

	protected.GET("/rooms", handler.handleListRooms)
	protected.GET("/rooms/:id", handler.handleGetRoom)
	protected.POST("/rooms", handler.handleCreateRoom)
	protected.PUT("/rooms/:id", handler.handleUpdateRoom)
	protected.DELETE("/rooms/:id", handler.handleDeleteRoom)

	protected.GET("/payments", handler.handleListPayments)
	protected.GET("/payments/tenant/:tenantId", handler.handleListPaymentsByTenant)
	protected.GET("/payments/room/:roomId", handler.handleListPaymentsByRoom)
	protected.GET("/payments/:id", handler.handleGetPayment)
	protected.POST("/payments", handler.handleCreatePayment)
	protected.PUT("/payments/:id", handler.handleUpdatePayment)
	protected.DELETE("/payments/:id", handler.handleDeletePayment)

	return router, nil
}

type httpHandler struct {
	tokens      TokenManager
	users       UserService
	tenants     TenantService
	rooms       RoomService
	payments    PaymentService
	metrics     MetricsCollector
	logger      *zap.Logger
	environment string
	version     string
	now         func() time.Time
	startedAt   time.Time
}
