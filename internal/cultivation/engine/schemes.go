package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// ErrNameRequired is returned when a scheme would be stored without a name.
var ErrNameRequired = errors.New("scheme name is required")

// SaveScheme stores the base configuration the request resolves to, with
// the request overrides kept separately. The final inputs must validate.
func (e *Engine) SaveScheme(ctx context.Context, req cultivation.SaveSchemeRequest) (*cultivation.Scheme, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	base := req.CalculateRequest
	base.Overrides = nil
	p, r, err := e.resolve(ctx, base)
	if err != nil {
		return nil, err
	}

	var overrides cultivation.Overrides
	if req.Overrides != nil {
		overrides = *req.Overrides
	}

	resp := Evaluate(overrides.Apply(p, r))
	if len(resp.Errors) > 0 {
		return nil, &ValidationError{Errors: resp.Errors}
	}

	sc := cultivation.Scheme{
		ID:        e.newID(),
		Name:      name,
		CreatedAt: e.now().UnixMilli(),
		Params:    p,
		Resource:  r,
		Overrides: overrides,
	}
	if req.IncludeResult {
		sc.Result = resp.Result
	}

	if err := e.schemes.InsertSchemes(ctx, []cultivation.Scheme{sc}); err != nil {
		return nil, err
	}
	e.logger.Info("scheme saved", "id", sc.ID, "name", sc.Name)
	return &sc, nil
}

// GetScheme returns a saved scheme.
func (e *Engine) GetScheme(ctx context.Context, id string) (*cultivation.Scheme, error) {
	sc, err := e.schemes.GetScheme(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
	}
	return sc, nil
}

// ListSchemes returns every saved scheme, newest first.
func (e *Engine) ListSchemes(ctx context.Context) ([]cultivation.Scheme, error) {
	return e.schemes.ListSchemes(ctx)
}

// RenameScheme changes the name of a saved scheme.
func (e *Engine) RenameScheme(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	ok, err := e.schemes.RenameScheme(ctx, id, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
	}
	return nil
}

// DeleteScheme removes a saved scheme.
func (e *Engine) DeleteScheme(ctx context.Context, id string) error {
	ok, err := e.schemes.DeleteScheme(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
	}
	e.logger.Info("scheme deleted", "id", id)
	return nil
}

// ExportScheme returns the portable form of a saved scheme. Overrides are
// folded into the exported params and resource.
func (e *Engine) ExportScheme(ctx context.Context, id string) (*cultivation.SchemeExport, error) {
	sc, err := e.GetScheme(ctx, id)
	if err != nil {
		return nil, err
	}
	p, r := sc.Overrides.Apply(sc.Params, sc.Resource)
	return &cultivation.SchemeExport{
		Name:       sc.Name,
		Params:     p,
		Resource:   r,
		ExportedAt: e.now().UTC().Format(time.RFC3339),
	}, nil
}

// ImportSchemes stores exported schemes under fresh ids. Unnamed schemes
// get a default name.
func (e *Engine) ImportSchemes(ctx context.Context, exports []cultivation.SchemeExport) ([]cultivation.Scheme, error) {
	now := e.now().UnixMilli()
	schemes := make([]cultivation.Scheme, 0, len(exports))
	for _, ex := range exports {
		name := strings.TrimSpace(ex.Name)
		if name == "" {
			name = cultivation.DefaultImportedSchemeName
		}
		schemes = append(schemes, cultivation.Scheme{
			ID:        e.newID(),
			Name:      name,
			CreatedAt: now,
			Params:    ex.Params,
			Resource:  ex.Resource,
		})
	}

	if err := e.schemes.InsertSchemes(ctx, schemes); err != nil {
		return nil, err
	}
	e.logger.Info("schemes imported", "count", len(schemes))
	return schemes, nil
}
