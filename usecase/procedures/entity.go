package procedures

import (
	"context"
	"encoding/json"
	"time"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/usecase/invoke"
)

type entityUpsertRequest struct {
	EntityType string          `json:"entity_type"`
	EntityName string          `json:"entity_name"`
	EntityCode string          `json:"entity_code"`
	SmartCode  string          `json:"smart_code"`
	Status     string          `json:"status"`
	Metadata   json.RawMessage `json:"metadata"`
}

// UpsertEntity creates an entity, or updates the existing one when an
// entity with the same (type, code) already exists in the organization.
func (s *Service) UpsertEntity(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body entityUpsertRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed entity payload", err)
	}
	if body.EntityType == "" || body.EntityName == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "entity_type and entity_name are required")
	}
	if body.SmartCode != "" {
		if _, err := domain.ParseSmartCode(body.SmartCode); err != nil {
			return nil, err
		}
	}

	if body.EntityCode != "" {
		existing, err := s.entities.GetByCode(ctx, req.OrganizationID, body.EntityType, body.EntityCode)
		switch {
		case err == nil:
			existing.EntityName = body.EntityName
			if body.SmartCode != "" {
				existing.SmartCode = body.SmartCode
			}
			if body.Status != "" {
				existing.Status = body.Status
			}
			if len(body.Metadata) > 0 {
				existing.Metadata = body.Metadata
			}
			if err := s.entities.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		case domain.IsDomainError(err, domain.ErrCodeNotFound):
			// fall through to create
		default:
			return nil, err
		}
	}

	entity := &domain.Entity{
		OrganizationID: req.OrganizationID,
		EntityType:     body.EntityType,
		EntityName:     body.EntityName,
		EntityCode:     body.EntityCode,
		SmartCode:      body.SmartCode,
		Status:         body.Status,
		Metadata:       body.Metadata,
	}
	return s.entities.Create(ctx, entity)
}

type entityReadRequest struct {
	EntityID string `json:"entity_id"`
}

// ReadEntity returns an entity with its dynamic fields.
func (s *Service) ReadEntity(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body entityReadRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed read payload", err)
	}
	if body.EntityID == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "entity_id is required")
	}

	entity, err := s.entities.GetByID(ctx, req.OrganizationID, body.EntityID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields.ListByEntity(ctx, req.OrganizationID, body.EntityID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"entity": entity,
		"fields": fields,
	}, nil
}

type fieldSetRequest struct {
	EntityID     string          `json:"entity_id"`
	FieldName    string          `json:"field_name"`
	ValueText    *string         `json:"value_text"`
	ValueNumber  *float64        `json:"value_number"`
	ValueBoolean *bool           `json:"value_boolean"`
	ValueJSON    json.RawMessage `json:"value_json"`
	SmartCode    string          `json:"smart_code"`
}

// SetDynamicField upserts one typed key/value on an entity; last write
// wins.
func (s *Service) SetDynamicField(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body fieldSetRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed field payload", err)
	}
	if body.EntityID == "" || body.FieldName == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "entity_id and field_name are required")
	}
	if body.ValueText == nil && body.ValueNumber == nil && body.ValueBoolean == nil && len(body.ValueJSON) == 0 {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "a typed value is required")
	}

	if _, err := s.entities.GetByID(ctx, req.OrganizationID, body.EntityID); err != nil {
		return nil, err
	}

	field := &domain.DynamicField{
		OrganizationID: req.OrganizationID,
		EntityID:       body.EntityID,
		FieldName:      body.FieldName,
		ValueText:      body.ValueText,
		ValueNumber:    body.ValueNumber,
		ValueBoolean:   body.ValueBoolean,
		ValueJSON:      body.ValueJSON,
		SmartCode:      body.SmartCode,
	}
	return s.fields.Upsert(ctx, field)
}

type relCreateRequest struct {
	FromEntityID     string          `json:"from_entity_id"`
	ToEntityID       string          `json:"to_entity_id"`
	RelationshipType string          `json:"relationship_type"`
	RelationshipData json.RawMessage `json:"relationship_data"`
	EffectiveDate    *time.Time      `json:"effective_date"`
	ExpirationDate   *time.Time      `json:"expiration_date"`
}

// CreateRelationship links two entities of the caller's organization.
func (s *Service) CreateRelationship(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body relCreateRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed relationship payload", err)
	}
	if body.FromEntityID == "" || body.ToEntityID == "" || body.RelationshipType == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "from_entity_id, to_entity_id and relationship_type are required")
	}

	rel := &domain.Relationship{
		OrganizationID:   req.OrganizationID,
		FromEntityID:     body.FromEntityID,
		ToEntityID:       body.ToEntityID,
		RelationshipType: body.RelationshipType,
		RelationshipData: body.RelationshipData,
		EffectiveDate:    body.EffectiveDate,
		ExpirationDate:   body.ExpirationDate,
	}
	return s.rels.Create(ctx, rel)
}
