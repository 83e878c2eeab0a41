package procedures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heracore/backend/domain"
)

func TestUpsertEntity_CreateThenUpdate(t *testing.T) {
	fx := newFixture()

	created, err := fx.service.UpsertEntity(context.Background(), request("org-1", map[string]interface{}{
		"entity_type": "product",
		"entity_name": "Shampoo",
		"entity_code": "SKU-001",
		"smart_code":  "HERA.SALON.PROD.ITEM.DEF.v1",
	}))
	require.NoError(t, err)
	entity := created.(*domain.Entity)
	assert.NotEmpty(t, entity.ID)
	assert.Equal(t, "active", entity.Status)
	assert.Equal(t, "HERA.SALON.PROD.ITEM.DEF.v1", entity.SmartCode)

	// same (type, code) resolves to the existing row
	updated, err := fx.service.UpsertEntity(context.Background(), request("org-1", map[string]interface{}{
		"entity_type": "product",
		"entity_name": "Shampoo Deluxe",
		"entity_code": "SKU-001",
	}))
	require.NoError(t, err)
	assert.Equal(t, entity.ID, updated.(*domain.Entity).ID)
	assert.Equal(t, "Shampoo Deluxe", updated.(*domain.Entity).EntityName)
}

func TestUpsertEntity_SameCodeOtherTenantCreatesNewRow(t *testing.T) {
	fx := newFixture()

	first, err := fx.service.UpsertEntity(context.Background(), request("org-1", map[string]interface{}{
		"entity_type": "product",
		"entity_name": "Shampoo",
		"entity_code": "SKU-001",
	}))
	require.NoError(t, err)

	second, err := fx.service.UpsertEntity(context.Background(), request("org-2", map[string]interface{}{
		"entity_type": "product",
		"entity_name": "Shampoo",
		"entity_code": "SKU-001",
	}))
	require.NoError(t, err)

	assert.NotEqual(t, first.(*domain.Entity).ID, second.(*domain.Entity).ID)
}

func TestUpsertEntity_Validation(t *testing.T) {
	fx := newFixture()

	_, err := fx.service.UpsertEntity(context.Background(), request("org-1", map[string]interface{}{
		"entity_type": "product",
	}))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidationFailed))

	_, err = fx.service.UpsertEntity(context.Background(), request("org-1", map[string]interface{}{
		"entity_type": "product",
		"entity_name": "Shampoo",
		"smart_code":  "bogus",
	}))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidSmartCode))
}

func TestReadEntity_WithFields(t *testing.T) {
	fx := newFixture()
	entity, err := fx.entities.Create(context.Background(), &domain.Entity{
		OrganizationID: "org-1",
		EntityType:     "customer",
		EntityName:     "Ada",
	})
	require.NoError(t, err)

	_, err = fx.service.SetDynamicField(context.Background(), request("org-1", map[string]interface{}{
		"entity_id":  entity.ID,
		"field_name": "loyalty_tier",
		"value_text": "gold",
	}))
	require.NoError(t, err)

	result, err := fx.service.ReadEntity(context.Background(), request("org-1", map[string]interface{}{
		"entity_id": entity.ID,
	}))
	require.NoError(t, err)

	view := result.(map[string]interface{})
	assert.Equal(t, "Ada", view["entity"].(*domain.Entity).EntityName)
	fields := view["fields"].([]domain.DynamicField)
	require.Len(t, fields, 1)
	assert.Equal(t, "gold", fields[0].Value())

	_, err = fx.service.ReadEntity(context.Background(), request("org-2", map[string]interface{}{
		"entity_id": entity.ID,
	}))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestSetDynamicField_LastWriteWins(t *testing.T) {
	fx := newFixture()
	entity, err := fx.entities.Create(context.Background(), &domain.Entity{
		OrganizationID: "org-1",
		EntityType:     "customer",
		EntityName:     "Ada",
	})
	require.NoError(t, err)

	_, err = fx.service.SetDynamicField(context.Background(), request("org-1", map[string]interface{}{
		"entity_id":    entity.ID,
		"field_name":   "credit_limit",
		"value_number": 100,
	}))
	require.NoError(t, err)

	_, err = fx.service.SetDynamicField(context.Background(), request("org-1", map[string]interface{}{
		"entity_id":    entity.ID,
		"field_name":   "credit_limit",
		"value_number": 250,
	}))
	require.NoError(t, err)

	field, err := fx.fields.Get(context.Background(), "org-1", entity.ID, "credit_limit")
	require.NoError(t, err)
	assert.Equal(t, 250.0, field.Value())

	fields, err := fx.fields.ListByEntity(context.Background(), "org-1", entity.ID)
	require.NoError(t, err)
	assert.Len(t, fields, 1, "rewrites replace, they do not accumulate")
}

func TestSetDynamicField_Validation(t *testing.T) {
	fx := newFixture()
	entity, err := fx.entities.Create(context.Background(), &domain.Entity{
		OrganizationID: "org-1",
		EntityType:     "customer",
		EntityName:     "Ada",
	})
	require.NoError(t, err)

	// no typed value at all
	_, err = fx.service.SetDynamicField(context.Background(), request("org-1", map[string]interface{}{
		"entity_id":  entity.ID,
		"field_name": "credit_limit",
	}))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidationFailed))

	// unknown entity
	_, err = fx.service.SetDynamicField(context.Background(), request("org-1", map[string]interface{}{
		"entity_id":  "missing",
		"field_name": "credit_limit",
		"value_text": "x",
	}))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestCreateRelationship(t *testing.T) {
	fx := newFixture()
	from, err := fx.entities.Create(context.Background(), &domain.Entity{
		OrganizationID: "org-1", EntityType: "customer", EntityName: "Ada",
	})
	require.NoError(t, err)
	to, err := fx.entities.Create(context.Background(), &domain.Entity{
		OrganizationID: "org-1", EntityType: "segment", EntityName: "VIP",
	})
	require.NoError(t, err)

	result, err := fx.service.CreateRelationship(context.Background(), request("org-1", map[string]interface{}{
		"from_entity_id":    from.ID,
		"to_entity_id":      to.ID,
		"relationship_type": "member_of",
	}))
	require.NoError(t, err)

	rel := result.(*domain.Relationship)
	assert.NotEmpty(t, rel.ID)
	assert.Equal(t, "member_of", rel.RelationshipType)
	assert.Equal(t, "org-1", rel.OrganizationID)
}

func TestCreateRelationship_Validation(t *testing.T) {
	fx := newFixture()

	_, err := fx.service.CreateRelationship(context.Background(), request("org-1", map[string]interface{}{
		"from_entity_id": "a",
		"to_entity_id":   "b",
	}))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidationFailed))
}
