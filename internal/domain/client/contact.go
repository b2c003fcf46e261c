package client

import (
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role represents a contact's function at the client company
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleManager    Role = "MANAGER"
	RoleEmployee   Role = "EMPLOYEE"
	RoleAuthorized Role = "AUTHORIZED"
	RoleOther      Role = "OTHER"
)

// PortalStatus represents the portal-access sub-state of a contact
type PortalStatus string

const (
	PortalStatusNone    PortalStatus = "NONE"
	PortalStatusPending PortalStatus = "PENDING"
	PortalStatusActive  PortalStatus = "ACTIVE"
	PortalStatusRevoked PortalStatus = "REVOKED"
)

// Channel is a preferred communication channel
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelPhone Channel = "PHONE"
	ChannelSMS   Channel = "SMS"
)

// BlackoutPeriod is a window during which the contact must not be contacted
type BlackoutPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CommunicationPreferences holds the structured contact-preference block
type CommunicationPreferences struct {
	PreferredChannel Channel          `json:"preferred_channel"`
	Language         string           `json:"language"`
	CallWindowStart  string           `json:"call_window_start,omitempty"` // "HH:MM"
	CallWindowEnd    string           `json:"call_window_end,omitempty"`
	BlackoutPeriods  []BlackoutPeriod `json:"blackout_periods,omitempty"`
	Newsletter       bool             `json:"newsletter"`
	Reminders        bool             `json:"reminders"`
}

// DefaultPreferences returns the preference block applied when none is supplied
func DefaultPreferences() CommunicationPreferences {
	return CommunicationPreferences{
		PreferredChannel: ChannelEmail,
		Language:         "pl",
		Reminders:        true,
	}
}

// ConsentRecord tracks the contact's consents. Data-processing consent is
// always granted at creation with a legal basis; marketing and third-party
// consents are optional and carry grant/revoke timestamps and a source.
type ConsentRecord struct {
	DataProcessingGrantedAt time.Time  `json:"data_processing_granted_at"`
	LegalBasis              string     `json:"legal_basis"`
	MarketingGrantedAt      *time.Time `json:"marketing_granted_at,omitempty"`
	MarketingRevokedAt      *time.Time `json:"marketing_revoked_at,omitempty"`
	MarketingSource         string     `json:"marketing_source,omitempty"`
	ThirdPartyGrantedAt     *time.Time `json:"third_party_granted_at,omitempty"`
	ThirdPartyRevokedAt     *time.Time `json:"third_party_revoked_at,omitempty"`
	ThirdPartySource        string     `json:"third_party_source,omitempty"`
}

// LegalBasisContract is the default legal basis stamped at creation
const LegalBasisContract = "contract"

// Contact represents a person at a client company. It is the aggregate root
// for contact lifecycle, the primary-contact invariant and portal access.
//
// Invariant: among the non-deleted contacts of a client at most one has
// IsPrimary set; zero is allowed only before the first contact exists.
type Contact struct {
	shared.TenantAggregateRoot
	shared.Tombstone
	ClientID        uuid.UUID `gorm:"type:uuid;not null;index"`
	FirstName       string    `gorm:"type:varchar(100);not null"`
	LastName        string    `gorm:"type:varchar(100);not null"`
	Email           string    `gorm:"type:varchar(200);index"`
	Phone           string    `gorm:"type:varchar(50)"`
	Mobile          string    `gorm:"type:varchar(50)"`
	Fax             string    `gorm:"type:varchar(50)"`
	Roles           []Role    `gorm:"-"`
	Position        string    `gorm:"type:varchar(100)"`
	Department      string    `gorm:"type:varchar(100)"`
	IsPrimary       bool      `gorm:"not null;default:false"`
	IsActive        bool      `gorm:"not null;default:true"`
	HasPortalAccess bool      `gorm:"not null;default:false"`
	PortalStatus    PortalStatus
	PortalAccountID *uuid.UUID
	PortalInvitedAt *time.Time
	Preferences     CommunicationPreferences `gorm:"-"`
	Consent         ConsentRecord            `gorm:"-"`
	Notes           string                   `gorm:"type:text"`
}

// NewContactParams carries the fields accepted at creation
type NewContactParams struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Mobile      string
	Fax         string
	Roles       []Role
	Position    string
	Department  string
	IsPrimary   bool
	Preferences *CommunicationPreferences
	Notes       string
}

// NewContact creates a contact for a client. At least one of email, phone or
// mobile must be present and the role set must be non-empty. A data-processing
// consent is always stamped at creation.
func NewContact(tenantID, clientID, actor uuid.UUID, p NewContactParams) (*Contact, error) {
	if err := validateName(p.FirstName, "first name"); err != nil {
		return nil, err
	}
	if err := validateName(p.LastName, "last name"); err != nil {
		return nil, err
	}
	if err := validateContactMethods(p.Email, p.Phone, p.Mobile); err != nil {
		return nil, err
	}
	if err := validateRoles(p.Roles); err != nil {
		return nil, err
	}
	if p.Email != "" {
		if err := validateEmail(p.Email); err != nil {
			return nil, err
		}
	}

	prefs := DefaultPreferences()
	if p.Preferences != nil {
		prefs = *p.Preferences
	}

	contact := &Contact{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, actor),
		ClientID:            clientID,
		FirstName:           strings.TrimSpace(p.FirstName),
		LastName:            strings.TrimSpace(p.LastName),
		Email:               strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:               p.Phone,
		Mobile:              p.Mobile,
		Fax:                 p.Fax,
		Roles:               p.Roles,
		Position:            p.Position,
		Department:          p.Department,
		IsPrimary:           p.IsPrimary,
		IsActive:            true,
		PortalStatus:        PortalStatusNone,
		Preferences:         prefs,
		Consent: ConsentRecord{
			DataProcessingGrantedAt: time.Now(),
			LegalBasis:              LegalBasisContract,
		},
		Notes: p.Notes,
	}

	contact.AddDomainEvent(NewContactCreatedEvent(contact))

	return contact, nil
}

// UpdateContactParams carries the optional fields of an update; nil means
// "leave unchanged". IsPrimary promotion is handled by the primary-transfer
// protocol, not here.
type UpdateContactParams struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	Mobile      *string
	Fax         *string
	Roles       []Role
	Position    *string
	Department  *string
	IsActive    *bool
	Preferences *CommunicationPreferences
	Notes       *string
}

// ApplyUpdate applies the supplied fields and returns the names of fields
// whose value actually changed. The returned list drives the history entry
// and the timeline event.
func (c *Contact) ApplyUpdate(p UpdateContactParams, actor uuid.UUID) ([]string, error) {
	if c.IsDeleted() {
		return nil, shared.NewPreconditionError("Cannot update a deleted contact")
	}

	email := c.Email
	phone := c.Phone
	mobile := c.Mobile
	if p.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Phone != nil {
		phone = *p.Phone
	}
	if p.Mobile != nil {
		mobile = *p.Mobile
	}
	if err := validateContactMethods(email, phone, mobile); err != nil {
		return nil, err
	}
	if email != "" && email != c.Email {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	if p.Roles != nil {
		if err := validateRoles(p.Roles); err != nil {
			return nil, err
		}
	}

	var changed []string
	if p.FirstName != nil && *p.FirstName != c.FirstName {
		if err := validateName(*p.FirstName, "first name"); err != nil {
			return nil, err
		}
		c.FirstName = strings.TrimSpace(*p.FirstName)
		changed = append(changed, "firstName")
	}
	if p.LastName != nil && *p.LastName != c.LastName {
		if err := validateName(*p.LastName, "last name"); err != nil {
			return nil, err
		}
		c.LastName = strings.TrimSpace(*p.LastName)
		changed = append(changed, "lastName")
	}
	if p.Email != nil && email != c.Email {
		c.Email = email
		changed = append(changed, "email")
	}
	if p.Phone != nil && phone != c.Phone {
		c.Phone = phone
		changed = append(changed, "phone")
	}
	if p.Mobile != nil && mobile != c.Mobile {
		c.Mobile = mobile
		changed = append(changed, "mobile")
	}
	if p.Fax != nil && *p.Fax != c.Fax {
		c.Fax = *p.Fax
		changed = append(changed, "fax")
	}
	if p.Roles != nil && !sameRoles(p.Roles, c.Roles) {
		c.Roles = p.Roles
		changed = append(changed, "roles")
	}
	if p.Position != nil && *p.Position != c.Position {
		c.Position = *p.Position
		changed = append(changed, "position")
	}
	if p.Department != nil && *p.Department != c.Department {
		c.Department = *p.Department
		changed = append(changed, "department")
	}
	if p.IsActive != nil && *p.IsActive != c.IsActive {
		if !*p.IsActive && c.IsPrimary {
			return nil, shared.NewPreconditionError("Cannot deactivate the primary contact; transfer primary status first")
		}
		c.IsActive = *p.IsActive
		changed = append(changed, "isActive")
	}
	if p.Preferences != nil {
		c.Preferences = *p.Preferences
		changed = append(changed, "preferences")
	}
	if p.Notes != nil && *p.Notes != c.Notes {
		c.Notes = *p.Notes
		changed = append(changed, "notes")
	}

	if len(changed) > 0 {
		c.UpdatedAt = time.Now()
		c.SetUpdatedBy(actor)
		c.IncrementVersion()
		c.AddDomainEvent(NewContactUpdatedEvent(c, changed))
	}

	return changed, nil
}

// MakePrimary marks the contact as the client's primary contact. The caller
// must have cleared the flag on all sibling contacts within the same
// transaction.
func (c *Contact) MakePrimary() {
	c.IsPrimary = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// ClearPrimary removes the primary flag
func (c *Contact) ClearPrimary() {
	c.IsPrimary = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// SoftDelete stamps the tombstone and deactivates the contact. The lone-primary
// precondition is enforced by the service, which knows the sibling count.
func (c *Contact) SoftDelete(actor uuid.UUID) error {
	if c.IsDeleted() {
		return shared.NewInvalidStateError("Contact is already deleted")
	}
	c.MarkDeleted(actor)
	c.IsActive = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	c.AddDomainEvent(NewContactDeletedEvent(c))
	return nil
}

// EnablePortal provisions portal access. The contact must have an email and
// must not already have access. Re-enabling after a revoke starts a fresh
// PENDING cycle.
func (c *Contact) EnablePortal(portalAccountID uuid.UUID, actor uuid.UUID) error {
	if c.IsDeleted() {
		return shared.NewPreconditionError("Cannot enable portal access for a deleted contact")
	}
	if c.Email == "" {
		return shared.NewPreconditionError("Contact must have an email address for portal access")
	}
	if c.HasPortalAccess {
		return shared.NewPreconditionError("Contact already has portal access")
	}

	now := time.Now()
	c.HasPortalAccess = true
	c.PortalStatus = PortalStatusPending
	c.PortalAccountID = &portalAccountID
	c.PortalInvitedAt = &now
	c.UpdatedAt = now
	c.SetUpdatedBy(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewPortalAccessGrantedEvent(c))
	return nil
}

// MarkPortalActive records the first successful portal login
func (c *Contact) MarkPortalActive() error {
	if c.PortalStatus != PortalStatusPending {
		return shared.NewInvalidStateError("Portal access is not pending activation")
	}
	c.PortalStatus = PortalStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// RevokePortal withdraws portal access. Historical access data (account
// reference, invitation timestamp) is retained.
func (c *Contact) RevokePortal(actor uuid.UUID) error {
	if !c.HasPortalAccess {
		return shared.NewPreconditionError("Contact does not have portal access")
	}
	c.HasPortalAccess = false
	c.PortalStatus = PortalStatusRevoked
	c.UpdatedAt = time.Now()
	c.SetUpdatedBy(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewPortalAccessRevokedEvent(c))
	return nil
}

// GrantMarketingConsent records a marketing consent grant
func (c *Contact) GrantMarketingConsent(source string) {
	now := time.Now()
	c.Consent.MarketingGrantedAt = &now
	c.Consent.MarketingRevokedAt = nil
	c.Consent.MarketingSource = source
	c.UpdatedAt = now
	c.IncrementVersion()
}

// RevokeMarketingConsent records a marketing consent revocation
func (c *Contact) RevokeMarketingConsent(source string) {
	now := time.Now()
	c.Consent.MarketingRevokedAt = &now
	c.Consent.MarketingSource = source
	c.UpdatedAt = now
	c.IncrementVersion()
}

// HasRole returns true if the contact holds the given role
func (c *Contact) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FullName returns "First Last"
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Validation helpers

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateName(name, label string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Contact " + label + " cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewValidationError("Contact " + label + " cannot exceed 100 characters")
	}
	return nil
}

func validateContactMethods(email, phone, mobile string) error {
	if email == "" && phone == "" && mobile == "" {
		return shared.NewValidationError("At least one contact method (email, phone or mobile) is required")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 || !emailRegex.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	return nil
}

func validateRoles(roles []Role) error {
	if len(roles) == 0 {
		return shared.NewValidationError("Contact must have at least one role")
	}
	for _, r := range roles {
		switch r {
		case RoleOwner, RoleAccountant, RoleManager, RoleEmployee, RoleAuthorized, RoleOther:
		default:
			return shared.NewValidationError("Unknown contact role: " + string(r))
		}
	}
	return nil
}

func sameRoles(a, b []Role) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[Role]struct{}, len(a))
	for _, r := range a {
		set[r] = struct{}{}
	}
	for _, r := range b {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
