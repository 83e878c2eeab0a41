package procedures

import (
	"context"
	"encoding/json"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/usecase/invoke"
)

// Organization configuration lives on a singleton entity per organization;
// each setting is one dynamic field keyed by name.
const (
	configEntityType = "configuration"
	configEntityCode = "ORG.CONFIG"
	configEntityName = "Organization Configuration"
)

type configWriteRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// WriteConfig stores one configuration value, creating the configuration
// entity on first use. Last write wins.
func (s *Service) WriteConfig(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body configWriteRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed config payload", err)
	}
	if body.Key == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "key is required")
	}
	if len(body.Value) == 0 {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "value is required")
	}

	holder, err := s.configEntity(ctx, req.OrganizationID, true)
	if err != nil {
		return nil, err
	}

	field := &domain.DynamicField{
		OrganizationID: req.OrganizationID,
		EntityID:       holder.ID,
		FieldName:      body.Key,
		ValueJSON:      body.Value,
	}
	return s.fields.Upsert(ctx, field)
}

type configReadRequest struct {
	Key string `json:"key"`
}

// ReadConfig returns one configuration value, or all of them when no key
// is given.
func (s *Service) ReadConfig(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body configReadRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed config payload", err)
	}

	holder, err := s.configEntity(ctx, req.OrganizationID, false)
	if err != nil {
		return nil, err
	}

	if body.Key != "" {
		field, err := s.fields.Get(ctx, req.OrganizationID, holder.ID, body.Key)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{body.Key: field.Value()}, nil
	}

	fields, err := s.fields.ListByEntity(ctx, req.OrganizationID, holder.ID)
	if err != nil {
		return nil, err
	}
	values := make(map[string]interface{}, len(fields))
	for i := range fields {
		values[fields[i].FieldName] = fields[i].Value()
	}
	return values, nil
}

func (s *Service) configEntity(ctx context.Context, organizationID string, createMissing bool) (*domain.Entity, error) {
	holder, err := s.entities.GetByCode(ctx, organizationID, configEntityType, configEntityCode)
	if err == nil {
		return holder, nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) || !createMissing {
		return nil, err
	}
	return s.entities.Create(ctx, &domain.Entity{
		OrganizationID: organizationID,
		EntityType:     configEntityType,
		EntityName:     configEntityName,
		EntityCode:     configEntityCode,
	})
}
