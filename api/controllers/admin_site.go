package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/api/middleware"
	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	newslettersvc "github.com/isolele/isolele-backend/internal/newsletter"
	profilesvc "github.com/isolele/isolele-backend/internal/profiles"
	reindexsvc "github.com/isolele/isolele-backend/internal/reindex"
	settingsvc "github.com/isolele/isolele-backend/internal/settings"
	statssvc "github.com/isolele/isolele-backend/internal/stats"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

func AdminListSubscribers(svc newslettersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), searchQuery(r), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminCountSubscribers(svc newslettersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, err := svc.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"total": total})
	}
}

func AdminDeleteSubscriber(svc newslettersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(logg, svc.Delete)
}

type upsertSettingRequest struct {
	Value    string `json:"value" validate:"max=10000"`
	IsPublic *bool  `json:"is_public"`
}

func AdminListSettings(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"settings": settings})
	}
}

// AdminUpsertSetting creates or replaces the setting named by {key}.
func AdminUpsertSetting(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertSettingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setting, err := svc.Upsert(r.Context(), settingsvc.UpsertInput{
			Key:      chi.URLParam(r, "key"),
			Value:    payload.Value,
			IsPublic: payload.IsPublic,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}

func AdminDeleteSetting(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type createProfileRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name" validate:"max=120"`
	Role        string `json:"role" validate:"omitempty,oneof=admin editor"`
	Password    string `json:"password" validate:"omitempty,min=8,max=128"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=120"`
	Role        *string `json:"role" validate:"omitempty,oneof=admin editor"`
	IsActive    *bool   `json:"is_active"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=128"`
}

func parseRole(raw string) (enums.ProfileRole, error) {
	role, err := enums.ParseProfileRole(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	return role, nil
}

func AdminListProfiles(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := optionalEnumQuery(r, "role", enums.ParseProfileRole)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), profilesvc.ListInput{Role: role, Query: searchQuery(r), Page: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetProfile(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, _ *http.Request, id uuid.UUID) (*profilesvc.ProfileDTO, error) {
		return svc.Get(ctx, id)
	})
}

// AdminCreateProfile creates an operator. When no password is supplied the
// generated temporary one is returned exactly once.
func AdminCreateProfile(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := profilesvc.CreateProfileInput{
			Email:       payload.Email,
			DisplayName: payload.DisplayName,
			Password:    payload.Password,
		}
		if payload.Role != "" {
			role, err := parseRole(payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Role = role
		}
		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminUpdateProfile(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, r *http.Request, id uuid.UUID) (*profilesvc.ProfileDTO, error) {
		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		input := profilesvc.UpdateProfileInput{
			DisplayName: trimmedPtr(payload.DisplayName),
			IsActive:    payload.IsActive,
			Password:    payload.Password,
		}
		if payload.Role != nil {
			role, err := parseRole(*payload.Role)
			if err != nil {
				return nil, err
			}
			input.Role = &role
		}
		return svc.Update(ctx, middleware.ProfileIDFromContext(ctx), id, input)
	})
}

func AdminDeleteProfile(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(logg, func(ctx context.Context, id uuid.UUID) error {
		return svc.Delete(ctx, middleware.ProfileIDFromContext(ctx), id)
	})
}

// AdminDashboard returns row counts per collection.
func AdminDashboard(svc statssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

// AdminReindex pings the search engines and returns the per-service report.
// Individual ping failures are part of the report, not an error response.
func AdminReindex(svc reindexsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Run(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reindex interrupted"))
			return
		}
		responses.WriteSuccess(w, report)
	}
}
