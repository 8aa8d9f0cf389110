package expression

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"visualexpr/internal/config"
	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	exprRepo "visualexpr/internal/domain/repositories/expression"
	exprSvc "visualexpr/internal/domain/services/expression"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// workspaceLock serializes the actions on one workspace.
type workspaceLock struct {
	mu   sync.Mutex
	refs int
}

// workspaceService implements the WorkspaceService interface
type workspaceService struct {
	repo    exprRepo.WorkspaceRepository
	catalog *Catalog
	loader  LibraryLoader
	hubs    *HubRegistry
	editors *editorCache
	logger  *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*workspaceLock
}

// NewWorkspaceService creates a new workspace service.
// Editors are loaded lazily and up to editorCacheSize of them stay in memory.
func NewWorkspaceService(
	repo exprRepo.WorkspaceRepository,
	catalog *Catalog,
	loader LibraryLoader,
	hubs *HubRegistry,
	editorCacheSize int,
	logger *slog.Logger,
) exprSvc.WorkspaceService {
	return &workspaceService{
		repo:    repo,
		catalog: catalog,
		loader:  loader,
		hubs:    hubs,
		editors: newEditorCache(editorCacheSize),
		logger:  logger,
		locks:   make(map[string]*workspaceLock),
	}
}

// CreateWorkspace creates a workspace. Settings left empty are taken from the
// palette catalog, and a non-empty expression must parse.
func (s *workspaceService) CreateWorkspace(ctx context.Context, req *exprSvc.CreateWorkspaceRequest) (*models.Workspace, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	settings, err := s.normalizeSettings(req.Settings.WithDefaults(s.catalog.Defaults()))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	workspace := &models.Workspace{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Name:      strings.TrimSpace(req.Name),
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Build the forest before anything is stored so a bad expression creates nothing.
	expression := settings.Expression
	settings.Expression = ""
	editor := s.newEditor(ctx, workspace.ID, settings, models.Forest{})
	if err := editor.SetExpression(expression); err != nil {
		return nil, err
	}
	workspace.Apply(editor.Settings(), editor.Snapshot())

	if err := s.repo.Create(ctx, workspace); err != nil {
		return nil, err
	}
	s.editors.put(workspace.ID, editorEntry{editor: editor, version: workspace.UpdatedAt})

	s.logger.Info("workspace created",
		"id", workspace.ID,
		"name", workspace.Name,
		"owner_id", req.OwnerID,
		"math_loaded", editor.Ready(),
	)

	return workspace, nil
}

// GetWorkspace retrieves a workspace by ID
func (s *workspaceService) GetWorkspace(ctx context.Context, id, ownerID string) (*models.Workspace, error) {
	return s.repo.GetByID(ctx, id, ownerID)
}

// ListWorkspaces retrieves all workspaces of an owner
func (s *workspaceService) ListWorkspaces(ctx context.Context, ownerID string) ([]models.Workspace, error) {
	return s.repo.List(ctx, ownerID)
}

// UpdateWorkspace renames a workspace and/or merges the sent settings onto the
// editor's current ones. The forest is rebuilt only when a different
// expression is sent.
func (s *workspaceService) UpdateWorkspace(ctx context.Context, id, ownerID string, req *exprSvc.UpdateWorkspaceRequest) (*models.Workspace, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	workspace, err := s.withEditor(ctx, id, ownerID, func(ws *models.Workspace, e *Editor) (bool, error) {
		if req.Name != nil {
			ws.Name = strings.TrimSpace(*req.Name)
		}
		if req.Settings == nil {
			return true, nil
		}

		current := e.Settings()
		settings, err := s.normalizeSettings(current.Merge(*req.Settings))
		if err != nil {
			return false, err
		}
		settings.Expression = current.Expression
		if err := e.Configure(settings); err != nil {
			return false, err
		}
		if req.Settings.Expression != nil {
			return true, e.ReplaceExpression(*req.Settings.Expression)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workspace updated",
		"id", id,
		"name", workspace.Name,
		"owner_id", ownerID,
	)

	return workspace, nil
}

// DeleteWorkspace deletes a workspace and disconnects its event clients
func (s *workspaceService) DeleteWorkspace(ctx context.Context, id, ownerID string) error {
	unlock := s.lock(id)
	defer unlock()

	// Verify workspace exists first (provides better error message)
	if _, err := s.repo.GetByID(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.editors.remove(id)
	s.hubs.Remove(id)

	s.logger.Info("workspace deleted",
		"id", id,
		"owner_id", ownerID,
	)

	return nil
}

// SetExpression replaces the forest with the decomposition of the text
func (s *workspaceService) SetExpression(ctx context.Context, id, ownerID string, req *exprSvc.SetExpressionRequest) (*models.Workspace, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Expression, validation.Length(0, config.MaxExpressionLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.withEditor(ctx, id, ownerID, func(_ *models.Workspace, e *Editor) (bool, error) {
		return true, e.SetExpression(req.Expression)
	})
}

// AddBlock prepends a palette item to the canvas
func (s *workspaceService) AddBlock(ctx context.Context, id, ownerID string, req *exprSvc.AddBlockRequest) (*models.Workspace, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Kind,
			validation.Required,
			validation.In(exprSvc.BlockKindConstant, exprSvc.BlockKindOperator, exprSvc.BlockKindFunction, exprSvc.BlockKindVariable),
		),
		validation.Field(&req.Name,
			validation.When(req.Kind != exprSvc.BlockKindConstant, validation.Required),
		),
		validation.Field(&req.Value, validation.Length(0, config.MaxExpressionLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.withEditor(ctx, id, ownerID, func(_ *models.Workspace, e *Editor) (bool, error) {
		switch req.Kind {
		case exprSvc.BlockKindConstant:
			return req.Value != "", e.AddConstant(req.Value)
		case exprSvc.BlockKindOperator:
			return true, e.AddOperator(req.Name)
		case exprSvc.BlockKindFunction:
			return true, e.AddFunction(req.Name)
		default:
			return true, e.AddVariable(req.Name)
		}
	})
}

// DeleteBlock removes the root at index
func (s *workspaceService) DeleteBlock(ctx context.Context, id, ownerID string, index int) (*models.Workspace, error) {
	return s.withEditor(ctx, id, ownerID, func(_ *models.Workspace, e *Editor) (bool, error) {
		return e.Delete(index)
	})
}

// MoveBlock drops a block into another block's slot or onto the canvas
func (s *workspaceService) MoveBlock(ctx context.Context, id, ownerID string, req *exprSvc.MoveBlockRequest) (*models.Workspace, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.SourceID, validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.withEditor(ctx, id, ownerID, func(_ *models.Workspace, e *Editor) (bool, error) {
		return e.Move(req.SourceID, req.TargetID)
	})
}

// WrapNot negates the single root expression
func (s *workspaceService) WrapNot(ctx context.Context, id, ownerID string) (*models.Workspace, error) {
	return s.withEditor(ctx, id, ownerID, func(_ *models.Workspace, e *Editor) (bool, error) {
		return e.WrapNot()
	})
}

// Subscribe registers an event stream client after checking ownership.
// The check and the registration hold the workspace lock, so a delete never
// lands between them.
func (s *workspaceService) Subscribe(ctx context.Context, id, ownerID string) (string, <-chan string, error) {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.repo.GetByID(ctx, id, ownerID); err != nil {
		return "", nil, err
	}

	clientID := uuid.NewString()
	events := s.hubs.Subscribe(id, clientID)

	s.logger.Debug("event client subscribed",
		"workspace_id", id,
		"client_id", clientID,
	)

	return clientID, events, nil
}

// Unsubscribe removes an event stream client
func (s *workspaceService) Unsubscribe(id, clientID string) {
	s.hubs.Unsubscribe(id, clientID)

	s.logger.Debug("event client unsubscribed",
		"workspace_id", id,
		"client_id", clientID,
	)
}

// withEditor runs action on the workspace's editor under the workspace lock
// and persists the result when the action reports a change.
func (s *workspaceService) withEditor(
	ctx context.Context,
	id, ownerID string,
	action func(ws *models.Workspace, e *Editor) (bool, error),
) (*models.Workspace, error) {
	unlock := s.lock(id)
	defer unlock()

	workspace, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	editor := s.editorFor(ctx, workspace)

	changed, err := action(workspace, editor)
	if err != nil {
		// A failed action may have changed part of the editor.
		s.editors.remove(id)
		return nil, err
	}
	if !changed {
		return workspace, nil
	}

	workspace.Apply(editor.Settings(), editor.Snapshot())
	workspace.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := s.repo.Update(ctx, workspace); err != nil {
		// The editor is ahead of the stored row now; reload it next time.
		s.editors.remove(id)
		return nil, err
	}
	s.editors.put(id, editorEntry{editor: editor, version: workspace.UpdatedAt})

	s.logger.Debug("workspace saved",
		"workspace_id", id,
		"expression", workspace.Evaluation.Expression,
		"roots", workspace.Forest.Len(),
	)

	return workspace, nil
}

// editorFor returns the cached editor of the workspace, or loads one from the
// stored row when none is cached or the row changed since it was cached.
func (s *workspaceService) editorFor(ctx context.Context, ws *models.Workspace) *Editor {
	if entry, ok := s.editors.get(ws.ID); ok && entry.version.Equal(ws.UpdatedAt) {
		if !entry.editor.Ready() {
			entry.editor.Init(ctx)
		}
		return entry.editor
	}

	editor := s.newEditor(ctx, ws.ID, ws.Settings, ws.Forest)
	s.editors.put(ws.ID, editorEntry{editor: editor, version: ws.UpdatedAt})
	return editor
}

func (s *workspaceService) newEditor(ctx context.Context, id string, settings models.Settings, forest models.Forest) *Editor {
	notifier := NotifierFunc(func(event models.Event) {
		// Events with no listening client are dropped.
		if hub := s.hubs.Lookup(id); hub != nil {
			hub.Publish(event)
		}
	})

	editor := NewEditor(settings, s.loader, notifier, s.logger.With("workspace_id", id))
	editor.Restore(forest)
	editor.Init(ctx)
	return editor
}

// lock acquires the workspace lock and returns its release function.
func (s *workspaceService) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &workspaceLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// normalizeSettings drops palette items the editor cannot place, canonicalizes
// the locale and validates the rest.
func (s *workspaceService) normalizeSettings(settings models.Settings) (models.Settings, error) {
	settings.Operators = FilterOperators(settings.Operators)
	settings.Funcs = FilterFunctions(settings.Funcs)

	if settings.Locale != "" {
		tag, err := language.Parse(settings.Locale)
		if err != nil {
			return settings, fmt.Errorf("%w: locale: %v", domain.ErrValidation, err)
		}
		settings.Locale = tag.String()
	}

	if err := validateSettings(&settings); err != nil {
		return settings, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return settings, nil
}

// validateCreateRequest validates a create workspace request
func (s *workspaceService) validateCreateRequest(req *exprSvc.CreateWorkspaceRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxWorkspaceNameLength),
			validation.By(validateWorkspaceName),
		),
	)
}

// validateUpdateRequest validates an update workspace request
func (s *workspaceService) validateUpdateRequest(req *exprSvc.UpdateWorkspaceRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxWorkspaceNameLength),
			validation.By(validateWorkspaceName),
		),
	)
}

func validateSettings(settings *models.Settings) error {
	return validation.ValidateStruct(settings,
		validation.Field(&settings.Expression, validation.Length(0, config.MaxExpressionLength)),
		validation.Field(&settings.Operators, validation.Length(0, config.MaxPaletteItems)),
		validation.Field(&settings.Funcs, validation.Length(0, config.MaxPaletteItems)),
		validation.Field(&settings.Variables,
			validation.Length(0, config.MaxVariables),
			validation.By(validateVariableNames),
		),
		validation.Field(&settings.Constants, validation.Length(0, config.MaxConstants)),
		validation.Field(&settings.OperatorMode,
			validation.Required,
			validation.In(models.OperatorModeDefault, models.OperatorModeVariable, models.OperatorModeVariableExpression),
		),
		validation.Field(&settings.Theme,
			validation.Required,
			validation.In(models.ThemeLight, models.ThemeDark),
		),
	)
}

// validateWorkspaceName validates a workspace name
func validateWorkspaceName(value interface{}) error {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case *string:
		if v == nil {
			return nil
		}
		name = *v
	default:
		return fmt.Errorf("name must be a string")
	}

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

// validateVariableNames requires unique identifiers that do not shadow the
// range and list predicates.
func validateVariableNames(value interface{}) error {
	variables, ok := value.(models.Variables)
	if !ok {
		return fmt.Errorf("variables must be a list")
	}

	seen := make(map[string]bool, len(variables))
	for _, v := range variables {
		name := v.VariableName()
		if !isIdentifier(name) {
			return fmt.Errorf("%q is not a valid variable name", name)
		}
		if name == FuncIsIn || name == FuncBetween {
			return fmt.Errorf("%q is reserved", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate variable %q", name)
		}
		seen[name] = true
	}
	return nil
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
