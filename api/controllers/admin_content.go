package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	articlesvc "github.com/isolele/isolele-backend/internal/articles"
	charactersvc "github.com/isolele/isolele-backend/internal/characters"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

// byID resolves the {id} URL parameter and writes fn's result.
func byID[T any](logg *logger.Logger, fn func(ctx context.Context, r *http.Request, id uuid.UUID) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := fn(r.Context(), r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// deleteByID resolves the {id} URL parameter and answers 204 on success.
func deleteByID(logg *logger.Logger, del func(ctx context.Context, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := del(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type articleRequest struct {
	Slug          *string `json:"slug" validate:"omitempty,max=120"`
	TitleEN       *string `json:"title_en" validate:"omitempty,max=200"`
	TitleFR       *string `json:"title_fr" validate:"omitempty,max=200"`
	ExcerptEN     *string `json:"excerpt_en" validate:"omitempty,max=500"`
	ExcerptFR     *string `json:"excerpt_fr" validate:"omitempty,max=500"`
	BodyEN        *string `json:"body_en"`
	BodyFR        *string `json:"body_fr"`
	CoverImageURL *string `json:"cover_image_url" validate:"omitempty,url"`
	Status        *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

func (r articleRequest) status() (*enums.ArticleStatus, error) {
	if r.Status == nil {
		return nil, nil
	}
	status, err := enums.ParseArticleStatus(*r.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}

func AdminListArticles(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := optionalEnumQuery(r, "status", enums.ParseArticleStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), articlesvc.ListInput{
			Status:  status,
			Query:   searchQuery(r),
			OrderBy: r.URL.Query().Get("order"),
			Page:    page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, _ *http.Request, id uuid.UUID) (*articlesvc.ArticleDTO, error) {
		return svc.Get(ctx, id)
	})
}

func AdminCreateArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload articleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := payload.status()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := articlesvc.CreateArticleInput{
			Slug:          deref(payload.Slug),
			TitleEN:       deref(payload.TitleEN),
			TitleFR:       deref(payload.TitleFR),
			ExcerptEN:     deref(payload.ExcerptEN),
			ExcerptFR:     deref(payload.ExcerptFR),
			BodyEN:        deref(payload.BodyEN),
			BodyFR:        deref(payload.BodyFR),
			CoverImageURL: trimmedPtr(payload.CoverImageURL),
			Status:        enums.ArticleStatusDraft,
		}
		if status != nil {
			input.Status = *status
		}
		article, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, article)
	}
}

func AdminUpdateArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, r *http.Request, id uuid.UUID) (*articlesvc.ArticleDTO, error) {
		var payload articleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		status, err := payload.status()
		if err != nil {
			return nil, err
		}
		return svc.Update(ctx, id, articlesvc.UpdateArticleInput{
			Slug:          trimmedPtr(payload.Slug),
			TitleEN:       trimmedPtr(payload.TitleEN),
			TitleFR:       trimmedPtr(payload.TitleFR),
			ExcerptEN:     payload.ExcerptEN,
			ExcerptFR:     payload.ExcerptFR,
			BodyEN:        payload.BodyEN,
			BodyFR:        payload.BodyFR,
			CoverImageURL: trimmedPtr(payload.CoverImageURL),
			Status:        status,
		})
	})
}

func AdminDeleteArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(logg, svc.Delete)
}

type characterRequest struct {
	Slug      *string `json:"slug" validate:"omitempty,max=120"`
	Name      *string `json:"name" validate:"omitempty,max=120"`
	RoleEN    *string `json:"role_en" validate:"omitempty,max=200"`
	RoleFR    *string `json:"role_fr" validate:"omitempty,max=200"`
	BioEN     *string `json:"bio_en"`
	BioFR     *string `json:"bio_fr"`
	ImageURL  *string `json:"image_url" validate:"omitempty,url"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,gte=0"`
}

func AdminListCharacters(svc charactersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

func AdminGetCharacter(svc charactersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, _ *http.Request, id uuid.UUID) (*charactersvc.CharacterDTO, error) {
		return svc.Get(ctx, id)
	})
}

func AdminCreateCharacter(svc charactersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload characterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := charactersvc.CreateCharacterInput{
			Slug:     deref(payload.Slug),
			Name:     deref(payload.Name),
			RoleEN:   deref(payload.RoleEN),
			RoleFR:   deref(payload.RoleFR),
			BioEN:    deref(payload.BioEN),
			BioFR:    deref(payload.BioFR),
			ImageURL: trimmedPtr(payload.ImageURL),
		}
		if payload.SortOrder != nil {
			input.SortOrder = *payload.SortOrder
		}
		character, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, character)
	}
}

func AdminUpdateCharacter(svc charactersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, r *http.Request, id uuid.UUID) (*charactersvc.CharacterDTO, error) {
		var payload characterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Update(ctx, id, charactersvc.UpdateCharacterInput{
			Slug:      trimmedPtr(payload.Slug),
			Name:      trimmedPtr(payload.Name),
			RoleEN:    payload.RoleEN,
			RoleFR:    payload.RoleFR,
			BioEN:     payload.BioEN,
			BioFR:     payload.BioFR,
			ImageURL:  trimmedPtr(payload.ImageURL),
			SortOrder: payload.SortOrder,
		})
	})
}

func AdminDeleteCharacter(svc charactersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(logg, svc.Delete)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
