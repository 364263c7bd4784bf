package application

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/flyroom/flyroom/pkg/configuration"
	"github.com/flyroom/flyroom/pkg/eventbus"
)

// Controller is anything that can register HTTP routes on the router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Application holds the shared dependencies controllers and services are
// wired with.
type Application interface {
	Config() *configuration.Configuration
	Logger() *logrus.Logger
	Pool() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
}

func New(cfg *configuration.Configuration, pool *pgxpool.Pool) Application {
	return &application{
		cfg:       cfg,
		pool:      pool,
		publisher: eventbus.NewEventPublisher(cfg.Logger()),
	}
}

type application struct {
	cfg         *configuration.Configuration
	pool        *pgxpool.Pool
	publisher   eventbus.EventBus
	controllers []Controller
	middleware  []mux.MiddlewareFunc
}

func (a *application) Config() *configuration.Configuration { return a.cfg }

func (a *application) Logger() *logrus.Logger { return a.cfg.Logger() }

func (a *application) Pool() *pgxpool.Pool { return a.pool }

func (a *application) EventPublisher() eventbus.EventBus { return a.publisher }

func (a *application) Controllers() []Controller { return a.controllers }

func (a *application) Middleware() []mux.MiddlewareFunc { return a.middleware }

func (a *application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}
