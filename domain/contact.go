package domain

import "strings"

// Contact is a person mentioned in meetings, kept in the companion CRM.
type Contact struct {
	Record
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Company  string   `json:"company,omitempty"`
	Role     string   `json:"role,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Aliases  []string `json:"aliases"`
	Tags     []string `json:"tags"`
	Projects []string `json:"projects"`
	Notes    []Note   `json:"notes"`
}

// ContactDraft carries the caller supplied fields of a new contact.
type ContactDraft struct {
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Company  string   `json:"company,omitempty"`
	Role     string   `json:"role,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Projects []string `json:"projects,omitempty"`
}

// ContactPatch carries a partial update. Nil fields are left untouched.
type ContactPatch struct {
	Name     *string   `json:"name,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Company  *string   `json:"company,omitempty"`
	Role     *string   `json:"role,omitempty"`
	Summary  *string   `json:"summary,omitempty"`
	Aliases  *[]string `json:"aliases,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Projects *[]string `json:"projects,omitempty"`
}

func (p ContactPatch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name", "must not be empty")
	}
	return nil
}

func (p ContactPatch) apply(c *Contact) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
	if p.Summary != nil {
		c.Summary = *p.Summary
	}
	if p.Aliases != nil {
		c.Aliases = normalizeSet(*p.Aliases)
	}
	if p.Tags != nil {
		c.Tags = normalizeSet(*p.Tags)
	}
	if p.Projects != nil {
		c.Projects = normalizeSet(*p.Projects)
	}
}
