package handler

import (
	"io"
	"sync"

	"botclient/internal/app/api"
	"botclient/internal/app/navigation"
	"botclient/internal/app/realtime"
	"botclient/internal/app/session"
	"botclient/internal/app/storage"
	"botclient/internal/configs"
)

// AppDeps bundles the runtime collaborators every view and command uses.
type AppDeps struct {
	Config    *configs.AppConfig
	Store     storage.Store
	Session   *session.State
	API       *api.Client
	Realtime  *realtime.Manager
	Navigator *navigation.Router

	// Out receives everything the views print.
	Out io.Writer

	// watchMu protects watching.
	watchMu sync.Mutex
	// watching is the id of the handle whose events are being printed.
	watching string
}

// NewAppDeps wires the collaborators and builds the guarded navigator.
func NewAppDeps(
	cfg *configs.AppConfig,
	store storage.Store,
	sess *session.State,
	client *api.Client,
	rt *realtime.Manager,
	out io.Writer,
) (*AppDeps, error) {
	deps := &AppDeps{
		Config:   cfg,
		Store:    store,
		Session:  sess,
		API:      client,
		Realtime: rt,
		Out:      &lockedWriter{w: out},
	}

	if _, err := Router(deps); err != nil {
		return nil, err
	}
	return deps, nil
}
