package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

type contactsResponse struct {
	Contacts []*domain.Contact `json:"contacts"`
}

type updateContactResponse struct {
	Contact  *domain.Contact   `json:"contact"`
	Activity []domain.Activity `json:"activity"`
}

type noteResponse struct {
	Note    domain.Note     `json:"note"`
	Contact *domain.Contact `json:"contact"`
}

func (s *server) listContacts(c echo.Context, r *request) error {
	view, err := domain.ParseView(c.QueryParam("view"))
	if err != nil {
		return err
	}
	contacts, err := s.contacts.List(r.ctx, r.owner(), view)
	if err != nil {
		return err
	}
	r.metrics.Count("contacts.returned", len(contacts))
	return c.JSON(http.StatusOK, contactsResponse{Contacts: contacts})
}

func (s *server) getContact(c echo.Context, r *request) error {
	contact, err := s.contacts.Get(r.ctx, r.owner(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *server) createContact(c echo.Context, r *request) error {
	var draft domain.ContactDraft
	if err := decodeBody(c, &draft); err != nil {
		return err
	}
	contact, err := s.contacts.Create(r.ctx, r.owner(), r.actor(), draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, contact)
}

func (s *server) updateContact(c echo.Context, r *request) error {
	var patch domain.ContactPatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	contact, appended, err := s.contacts.Update(r.ctx, r.owner(), c.Param("id"), r.actor(), patch)
	if err != nil {
		return err
	}
	r.metrics.Count("activity.appended", len(appended))
	if appended == nil {
		appended = []domain.Activity{}
	}
	return c.JSON(http.StatusOK, updateContactResponse{Contact: contact, Activity: appended})
}

func (s *server) pinContact(pinned bool) handlerFunc {
	return func(c echo.Context, r *request) error {
		contact, err := s.contacts.SetPinned(r.ctx, r.owner(), c.Param("id"), r.actor(), pinned)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, contact)
	}
}

func (s *server) deleteContact(c echo.Context, r *request) error {
	contact, err := s.contacts.SoftDelete(r.ctx, r.owner(), c.Param("id"), r.actor())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *server) restoreContact(c echo.Context, r *request) error {
	contact, err := s.contacts.Restore(r.ctx, r.owner(), c.Param("id"), r.actor())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (s *server) purgeContact(c echo.Context, r *request) error {
	if err := s.contacts.PermanentDelete(r.ctx, r.owner(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) emptyContactTrash(c echo.Context, r *request) error {
	n, err := s.contacts.EmptyTrash(r.ctx, r.owner())
	if err != nil {
		return err
	}
	r.metrics.Count("contacts.removed", n)
	return c.JSON(http.StatusOK, removedResponse{Removed: n})
}

func (s *server) noteContact(c echo.Context, r *request) error {
	var body noteRequest
	if err := decodeBody(c, &body); err != nil {
		return err
	}
	note, contact, err := s.contacts.AddNote(r.ctx, r.owner(), c.Param("id"), r.actor(), body.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, noteResponse{Note: note, Contact: contact})
}
