// Package server exposes the engine over HTTP. Single user, no auth: the
// process listens on localhost for local tooling.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"getmoredone/internal/domain"
	"getmoredone/internal/engine"
	"getmoredone/internal/factors"
	"getmoredone/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"start date is after due date"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type bodyBytesKey struct{}

// New returns an HTTP handler exposing the API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	// keep the raw body around so handlers can tell explicit null from absent
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyBytesKey{}, bodyBytes)))
		})
	})
	hcfg := huma.DefaultConfig("GetMoreDone API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerItems(group, cfg.Engine)
	registerViews(group, cfg.Engine)
	registerDefaults(group, cfg.Engine)
	registerPlanning(group, cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps the domain error taxonomy onto the envelope.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var vErr domain.ValidationError
	if errors.As(err, &vErr) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": vErr.Field})
	}
	var nfErr domain.NotFoundError
	if errors.As(err, &nfErr) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), map[string]any{"entity": nfErr.Entity, "id": nfErr.ID})
	}
	var cErr domain.CycleError
	if errors.As(err, &cErr) {
		return newAPIError(http.StatusConflict, "hierarchy_cycle", err.Error(), map[string]any{"item_id": cErr.ItemID})
	}
	var sErr domain.SortKeyError
	if errors.As(err, &sErr) {
		return newAPIError(http.StatusBadRequest, "invalid_sort_key", err.Error(), map[string]any{"key": sErr.Key})
	}
	if errors.Is(err, domain.ErrTimerActive) {
		return newAPIError(http.StatusConflict, "timer_active", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var ulErr factors.UnknownLabelError
	var ivErr factors.InvalidValueError
	if errors.As(err, &ulErr) || errors.As(err, &ivErr) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// presentFn reports whether a top-level key appeared in the request body.
func presentFn(ctx context.Context) func(string) bool {
	raw, _ := ctx.Value(bodyBytesKey{}).([]byte)
	var m map[string]json.RawMessage
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &m)
	}
	return func(key string) bool {
		_, ok := m[key]
		return ok
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status" example:"ok"`
			}
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}

func registerItems(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-item",
		Method:        http.MethodPost,
		Path:          "/items",
		Summary:       "Create item",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateItemRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		it, err := e.CreateItem(ctx, engine.CreateItemOptions{
			Who:         input.Body.Who,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			ParentID:    input.Body.ParentID,
			Fields:      draftFromBody(input.Body.FactorFields, presentFn(ctx)),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: it}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/items/{id}",
		Summary:     "Get item detail",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body engine.ItemDetail `json:"body"`
	}, error) {
		detail, err := e.GetItemDetail(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ItemDetail `json:"body"`
		}{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-item",
		Method:      http.MethodPatch,
		Path:        "/items/{id}",
		Summary:     "Edit item",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   string          `path:"id"`
		Body EditItemRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		present := presentFn(ctx)
		it, err := e.EditItem(ctx, input.ID, engine.EditItemOptions{
			Who:         input.Body.Who,
			Title:       input.Body.Title,
			Description: input.Body.Description, DescriptionSet: present("description"),
			ParentID: input.Body.ParentID, ParentIDSet: present("parent_id"),
			Fields: draftFromBody(input.Body.FactorFields, present),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: it}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-item",
		Method:      http.MethodDelete,
		Path:        "/items/{id}",
		Summary:     "Delete item, promoting children to root",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteItem(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-item",
		Method:      http.MethodPost,
		Path:        "/items/{id}/complete",
		Summary:     "Complete item",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		it, err := e.CompleteItem(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: it}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-item",
		Method:      http.MethodPost,
		Path:        "/items/{id}/cancel",
		Summary:     "Cancel item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		it, err := e.CancelItem(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: it}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "complete-create-item",
		Method:        http.MethodPost,
		Path:          "/items/{id}/complete-create",
		Summary:       "Complete item and create its follow-up",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body DuplicateRequest `json:"body"`
	}) (*struct {
		Body CompleteCreateResponse `json:"body"`
	}, error) {
		done, dup, err := e.CompleteAndDuplicate(ctx, input.ID, duplicateOptions(input.Body, presentFn(ctx)))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CompleteCreateResponse `json:"body"`
		}{Body: CompleteCreateResponse{Completed: done, Created: dup}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "duplicate-item",
		Method:        http.MethodPost,
		Path:          "/items/{id}/duplicate",
		Summary:       "Duplicate item",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body DuplicateRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		dup, err := e.DuplicateItem(ctx, input.ID, duplicateOptions(input.Body, presentFn(ctx)))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: dup}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-sub-item",
		Method:        http.MethodPost,
		Path:          "/items/{id}/sub",
		Summary:       "Create sub-item",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body CreateItemRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		it, err := e.CreateSubItem(ctx, input.ID, engine.CreateItemOptions{
			Who:         input.Body.Who,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Fields:      draftFromBody(input.Body.FactorFields, presentFn(ctx)),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: it}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reschedule-item",
		Method:      http.MethodPost,
		Path:        "/items/{id}/reschedule",
		Summary:     "Reschedule item",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body RescheduleRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		present := presentFn(ctx)
		it, err := e.RescheduleItem(ctx, input.ID, engine.RescheduleOptions{
			StartDate: input.Body.StartDate, StartDateSet: present("start_date"),
			DueDate: input.Body.DueDate, DueDateSet: present("due_date"),
			Reason: input.Body.Reason,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: ItemResponse{Item: it}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "item-tree",
		Method:      http.MethodGet,
		Path:        "/items/{id}/tree",
		Summary:     "Item subtree",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body engine.TreeNode `json:"body"`
	}, error) {
		tree, err := e.ItemTree(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.TreeNode `json:"body"`
		}{Body: tree}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-item-link",
		Method:        http.MethodPost,
		Path:          "/items/{id}/links",
		Summary:       "Attach URL to item",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body CreateLinkRequest `json:"body"`
	}) (*struct {
		Body domain.ItemLink `json:"body"`
	}, error) {
		link, err := e.AddItemLink(ctx, input.ID, input.Body.URL, input.Body.Label)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ItemLink `json:"body"`
		}{Body: link}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-work-log",
		Method:        http.MethodPost,
		Path:          "/items/{id}/worklogs",
		Summary:       "Record work against item",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body CreateWorkLogRequest `json:"body"`
	}) (*struct {
		Body domain.WorkLog `json:"body"`
	}, error) {
		log, err := e.AddWorkLog(ctx, engine.AddWorkLogOptions{
			ItemID:    input.ID,
			StartedAt: input.Body.StartedAt,
			EndedAt:   input.Body.EndedAt,
			Minutes:   input.Body.Minutes,
			Note:      input.Body.Note,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkLog `json:"body"`
		}{Body: log}, nil
	})
}

func registerViews(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/items",
		Summary:     "List items sorted by a validated key",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status   string `query:"status" enum:"open,completed,canceled,"`
		Who      string `query:"who"`
		Group    string `query:"group"`
		Category string `query:"category"`
		Sort     string `query:"sort"`
		Desc     bool   `query:"desc"`
	}) (*struct {
		Body ItemListResponse `json:"body"`
	}, error) {
		items, err := e.SortedItems(ctx, repo.ItemFilters{
			Status:   input.Status,
			Who:      input.Who,
			Group:    input.Group,
			Category: input.Category,
		}, input.Sort, input.Desc)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemListResponse `json:"body"`
		}{Body: ItemListResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upcoming-items",
		Method:      http.MethodGet,
		Path:        "/items/upcoming",
		Summary:     "Open items due inside the window",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Who    string `query:"who"`
		Window int    `query:"window" default:"7"`
		Ref    string `query:"ref" format:"date"`
	}) (*struct {
		Body ItemListResponse `json:"body"`
	}, error) {
		items, err := e.UpcomingItems(ctx, input.Who, input.Window, input.Ref)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemListResponse `json:"body"`
		}{Body: ItemListResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "completed-items",
		Method:      http.MethodGet,
		Path:        "/items/completed",
		Summary:     "Recently completed items",
	}, func(ctx context.Context, input *struct {
		Who   string `query:"who"`
		Since string `query:"since" format:"date-time"`
	}) (*struct {
		Body ItemListResponse `json:"body"`
	}, error) {
		items, err := e.CompletedItems(ctx, input.Who, input.Since)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemListResponse `json:"body"`
		}{Body: ItemListResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "search-items",
		Method:      http.MethodGet,
		Path:        "/items/search",
		Summary:     "Search items by title or description",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Q string `query:"q"`
	}) (*struct {
		Body ItemListResponse `json:"body"`
	}, error) {
		items, err := e.SearchItems(ctx, input.Q)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemListResponse `json:"body"`
		}{Body: ItemListResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Planned vs actual minutes per item",
	}, func(ctx context.Context, input *struct {
		Who string `query:"who"`
	}) (*struct {
		Body struct {
			Rows []domain.PlannedActual `json:"rows"`
		}
	}, error) {
		rows, err := e.Stats(ctx, input.Who)
		if err != nil {
			return nil, handleError(err)
		}
		resp := &struct {
			Body struct {
				Rows []domain.PlannedActual `json:"rows"`
			}
		}{}
		resp.Body.Rows = rows
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "field-pickers",
		Method:      http.MethodGet,
		Path:        "/pickers",
		Summary:     "Distinct who/group/category values in use",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.Pickers `json:"body"`
	}, error) {
		p, err := e.FieldPickers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.Pickers `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recent-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent audit events",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body struct {
			Events []domain.Event `json:"events"`
		}
	}, error) {
		evts, err := e.RecentEvents(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		resp := &struct {
			Body struct {
				Events []domain.Event `json:"events"`
			}
		}{}
		resp.Body.Events = evts
		return resp, nil
	})
}

func registerDefaults(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-defaults",
		Method:      http.MethodGet,
		Path:        "/defaults",
		Summary:     "List defaults profiles",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Profiles []domain.DefaultsProfile `json:"profiles"`
		}
	}, error) {
		profiles, err := e.ListDefaults(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		resp := &struct {
			Body struct {
				Profiles []domain.DefaultsProfile `json:"profiles"`
			}
		}{}
		resp.Body.Profiles = profiles
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-defaults",
		Method:      http.MethodGet,
		Path:        "/defaults/{scope_type}",
		Summary:     "Fetch one defaults profile",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ScopeType string `path:"scope_type" enum:"system,who"`
		Key       string `query:"key"`
	}) (*struct {
		Body domain.DefaultsProfile `json:"body"`
	}, error) {
		p, err := e.GetDefaults(ctx, input.ScopeType, input.Key)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DefaultsProfile `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-defaults",
		Method:      http.MethodPut,
		Path:        "/defaults",
		Summary:     "Upsert a defaults profile",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body DefaultsRequest `json:"body"`
	}) (*struct {
		Body domain.DefaultsProfile `json:"body"`
	}, error) {
		p := domain.DefaultsProfile{
			ScopeType:       input.Body.ScopeType,
			ScopeKey:        input.Body.ScopeKey,
			Importance:      input.Body.Importance,
			Urgency:         input.Body.Urgency,
			Size:            input.Body.Size,
			Value:           input.Body.Value,
			Group:           input.Body.Group,
			Category:        input.Body.Category,
			PlannedMinutes:  input.Body.PlannedMinutes,
			StartOffsetDays: input.Body.StartOffsetDays,
			DueOffsetDays:   input.Body.DueOffsetDays,
		}
		if err := e.SaveDefaults(ctx, p); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DefaultsProfile `json:"body"`
		}{Body: p}, nil
	})
}

func registerPlanning(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-block",
		Method:        http.MethodPost,
		Path:          "/blocks",
		Summary:       "Plan a time block",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateBlockRequest `json:"body"`
	}) (*struct {
		Body domain.TimeBlock `json:"body"`
	}, error) {
		b, err := e.AddTimeBlock(ctx, engine.AddTimeBlockOptions{
			ItemID:    input.Body.ItemID,
			BlockDate: input.Body.BlockDate,
			StartTime: input.Body.StartTime,
			EndTime:   input.Body.EndTime,
			Label:     input.Body.Label,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.TimeBlock `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-blocks",
		Method:      http.MethodGet,
		Path:        "/blocks",
		Summary:     "Blocks planned for a date",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Date string `query:"date" format:"date"`
	}) (*struct {
		Body struct {
			Blocks []domain.TimeBlock `json:"blocks"`
		}
	}, error) {
		blocks, err := e.TimeBlocksForDate(ctx, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		resp := &struct {
			Body struct {
				Blocks []domain.TimeBlock `json:"blocks"`
			}
		}{}
		resp.Body.Blocks = blocks
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-block",
		Method:      http.MethodDelete,
		Path:        "/blocks/{id}",
		Summary:     "Delete a planned block; the linked item is untouched",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteTimeBlock(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
