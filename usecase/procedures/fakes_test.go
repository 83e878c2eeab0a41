package procedures

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/repository"
	"github.com/heracore/backend/usecase/invoke"
)

// In-memory repositories mirroring the storage-layer semantics: tenant
// scoping on every lookup, max+1 line numbering, and header totals kept in
// sync with the lines.

type memEntities struct {
	rows map[string]*domain.Entity
}

func newMemEntities() *memEntities {
	return &memEntities{rows: make(map[string]*domain.Entity)}
}

func (m *memEntities) GetByID(ctx context.Context, organizationID, id string) (*domain.Entity, error) {
	if e, ok := m.rows[id]; ok && e.OrganizationID == organizationID {
		clone := *e
		return &clone, nil
	}
	return nil, domain.ErrEntityNotFound
}

func (m *memEntities) GetByCode(ctx context.Context, organizationID, entityType, entityCode string) (*domain.Entity, error) {
	for _, e := range m.rows {
		if e.OrganizationID == organizationID && e.EntityType == entityType && e.EntityCode == entityCode {
			clone := *e
			return &clone, nil
		}
	}
	return nil, domain.ErrEntityNotFound
}

func (m *memEntities) List(ctx context.Context, organizationID string, filter repository.EntityFilter) ([]domain.Entity, error) {
	var out []domain.Entity
	for _, e := range m.rows {
		if e.OrganizationID != organizationID {
			continue
		}
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memEntities) Create(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	if entity == nil || entity.OrganizationID == "" || entity.EntityType == "" || entity.EntityName == "" {
		return nil, domain.ErrInvalidPayload
	}
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	if entity.Status == "" {
		entity.Status = "active"
	}
	clone := *entity
	m.rows[entity.ID] = &clone
	return entity, nil
}

func (m *memEntities) Update(ctx context.Context, entity *domain.Entity) error {
	if e, ok := m.rows[entity.ID]; ok && e.OrganizationID == entity.OrganizationID {
		clone := *entity
		m.rows[entity.ID] = &clone
		return nil
	}
	return domain.ErrEntityNotFound
}

func (m *memEntities) SetStatus(ctx context.Context, organizationID, id, status string) error {
	if e, ok := m.rows[id]; ok && e.OrganizationID == organizationID {
		e.Status = status
		return nil
	}
	return domain.ErrEntityNotFound
}

type memFields struct {
	rows map[string]*domain.DynamicField
}

func newMemFields() *memFields {
	return &memFields{rows: make(map[string]*domain.DynamicField)}
}

func fieldKey(organizationID, entityID, fieldName string) string {
	return organizationID + "|" + entityID + "|" + fieldName
}

func (m *memFields) Get(ctx context.Context, organizationID, entityID, fieldName string) (*domain.DynamicField, error) {
	if f, ok := m.rows[fieldKey(organizationID, entityID, fieldName)]; ok {
		clone := *f
		return &clone, nil
	}
	return nil, domain.ErrFieldNotFound
}

func (m *memFields) ListByEntity(ctx context.Context, organizationID, entityID string) ([]domain.DynamicField, error) {
	var out []domain.DynamicField
	for _, f := range m.rows {
		if f.OrganizationID == organizationID && f.EntityID == entityID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFields) Upsert(ctx context.Context, field *domain.DynamicField) (*domain.DynamicField, error) {
	key := fieldKey(field.OrganizationID, field.EntityID, field.FieldName)
	if existing, ok := m.rows[key]; ok {
		field.ID = existing.ID
	} else if field.ID == "" {
		field.ID = uuid.NewString()
	}
	clone := *field
	m.rows[key] = &clone
	return field, nil
}

func (m *memFields) Delete(ctx context.Context, organizationID, entityID, fieldName string) error {
	key := fieldKey(organizationID, entityID, fieldName)
	if _, ok := m.rows[key]; !ok {
		return domain.ErrFieldNotFound
	}
	delete(m.rows, key)
	return nil
}

type memRels struct {
	rows map[string]*domain.Relationship
}

func newMemRels() *memRels {
	return &memRels{rows: make(map[string]*domain.Relationship)}
}

func (m *memRels) GetByID(ctx context.Context, organizationID, id string) (*domain.Relationship, error) {
	if r, ok := m.rows[id]; ok && r.OrganizationID == organizationID {
		clone := *r
		return &clone, nil
	}
	return nil, domain.NewError(domain.ErrCodeNotFound, "relationship not found")
}

func (m *memRels) List(ctx context.Context, organizationID string, filter repository.RelationshipFilter) ([]domain.Relationship, error) {
	var out []domain.Relationship
	for _, r := range m.rows {
		if r.OrganizationID == organizationID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRels) Create(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error) {
	if rel == nil || rel.OrganizationID == "" || rel.FromEntityID == "" || rel.ToEntityID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	clone := *rel
	m.rows[rel.ID] = &clone
	return rel, nil
}

func (m *memRels) Delete(ctx context.Context, organizationID, id string) error {
	if r, ok := m.rows[id]; ok && r.OrganizationID == organizationID {
		delete(m.rows, id)
		return nil
	}
	return domain.NewError(domain.ErrCodeNotFound, "relationship not found")
}

type memTxns struct {
	headers map[string]*domain.Transaction
	lines   map[string]*domain.TransactionLine
}

func newMemTxns() *memTxns {
	return &memTxns{
		headers: make(map[string]*domain.Transaction),
		lines:   make(map[string]*domain.TransactionLine),
	}
}

func (m *memTxns) GetByID(ctx context.Context, organizationID, id string) (*domain.Transaction, error) {
	if t, ok := m.headers[id]; ok && t.OrganizationID == organizationID {
		clone := *t
		return &clone, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memTxns) List(ctx context.Context, organizationID string, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range m.headers {
		if t.OrganizationID == organizationID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTxns) Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	if txn == nil || txn.OrganizationID == "" || txn.TransactionType == "" {
		return nil, domain.ErrInvalidPayload
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Status == "" {
		txn.Status = domain.TxnStatusDraft
	}
	clone := *txn
	m.headers[txn.ID] = &clone
	return txn, nil
}

func (m *memTxns) SetStatus(ctx context.Context, organizationID, id, status string) error {
	if t, ok := m.headers[id]; ok && t.OrganizationID == organizationID {
		t.Status = status
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *memTxns) UpdateMetadata(ctx context.Context, organizationID, id string, metadata []byte) error {
	if t, ok := m.headers[id]; ok && t.OrganizationID == organizationID {
		t.Metadata = metadata
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *memTxns) AddLine(ctx context.Context, line *domain.TransactionLine) (*domain.TransactionLine, error) {
	if line == nil || line.OrganizationID == "" || line.TransactionID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	max := 0
	for _, l := range m.lines {
		if l.TransactionID == line.TransactionID && l.LineNumber > max {
			max = l.LineNumber
		}
	}
	line.LineNumber = max + 1
	clone := *line
	m.lines[line.ID] = &clone
	m.refreshTotal(line.OrganizationID, line.TransactionID)
	return line, nil
}

func (m *memTxns) GetLine(ctx context.Context, organizationID, transactionID, lineID string) (*domain.TransactionLine, error) {
	if l, ok := m.lines[lineID]; ok && l.OrganizationID == organizationID && l.TransactionID == transactionID {
		clone := *l
		return &clone, nil
	}
	return nil, domain.ErrLineNotFound
}

func (m *memTxns) ListLines(ctx context.Context, organizationID, transactionID string) ([]domain.TransactionLine, error) {
	var out []domain.TransactionLine
	for _, l := range m.lines {
		if l.OrganizationID == organizationID && l.TransactionID == transactionID {
			out = append(out, *l)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].LineNumber < out[i].LineNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memTxns) UpdateLine(ctx context.Context, organizationID, transactionID, lineID string, patch repository.LinePatch) (*domain.TransactionLine, error) {
	l, ok := m.lines[lineID]
	if !ok || l.OrganizationID != organizationID || l.TransactionID != transactionID {
		return nil, domain.ErrLineNotFound
	}
	if patch.Quantity != nil {
		l.Quantity = *patch.Quantity
	}
	if patch.UnitAmount != nil {
		l.UnitAmount = *patch.UnitAmount
	}
	if patch.ManualAmount {
		if patch.LineAmount != nil {
			l.LineAmount = *patch.LineAmount
		}
	} else {
		l.LineAmount = l.Quantity * l.UnitAmount
	}
	if patch.EntityID != nil {
		l.EntityID = *patch.EntityID
	}
	if len(patch.LineData) > 0 {
		l.LineData = patch.LineData
	}
	m.refreshTotal(organizationID, transactionID)
	clone := *l
	return &clone, nil
}

func (m *memTxns) RemoveLine(ctx context.Context, organizationID, transactionID, lineID string) error {
	l, ok := m.lines[lineID]
	if !ok || l.OrganizationID != organizationID || l.TransactionID != transactionID {
		return domain.ErrLineNotFound
	}
	delete(m.lines, lineID)
	m.refreshTotal(organizationID, transactionID)
	return nil
}

func (m *memTxns) refreshTotal(organizationID, transactionID string) {
	total := 0.0
	for _, l := range m.lines {
		if l.OrganizationID == organizationID && l.TransactionID == transactionID {
			total += l.LineAmount
		}
	}
	if t, ok := m.headers[transactionID]; ok && t.OrganizationID == organizationID {
		t.TotalAmount = total
	}
}

type fixture struct {
	service  *Service
	entities *memEntities
	fields   *memFields
	rels     *memRels
	txns     *memTxns
}

func newFixture() *fixture {
	entities := newMemEntities()
	fields := newMemFields()
	rels := newMemRels()
	txns := newMemTxns()
	return &fixture{
		service:  New(entities, fields, rels, txns, nil),
		entities: entities,
		fields:   fields,
		rels:     rels,
		txns:     txns,
	}
}

func request(organizationID string, payload interface{}) invoke.Request {
	raw, _ := json.Marshal(payload)
	return invoke.Request{
		OrganizationID: organizationID,
		CorrelationID:  "WF-20250101000000-0a1b2c3d-001",
		Payload:        raw,
	}
}
