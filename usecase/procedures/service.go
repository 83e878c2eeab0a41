package procedures

import (
	"go.uber.org/zap"

	"github.com/heracore/backend/repository"
	"github.com/heracore/backend/usecase/invoke"
)

// Canonical smart codes served by this package. Registration happens once
// at startup, so a missing handler is a wiring error, not a runtime
// surprise.
const (
	CodeTxnHeaderCreate = "HERA.UNIV.TXN.HEADER.CREATE.V1"
	CodeTxnHeaderStatus = "HERA.UNIV.TXN.HEADER.STATUS.V1"
	CodeTxnLineAdd      = "HERA.UNIV.TXN.LINE.ADD.V1"
	CodeTxnLineUpdate   = "HERA.UNIV.TXN.LINE.UPDATE.V1"
	CodeTxnLineRemove   = "HERA.UNIV.TXN.LINE.REMOVE.V1"
	CodeTxnRead         = "HERA.UNIV.TXN.READ.V1"
	CodeEntityUpsert    = "HERA.UNIV.ENTITY.UPSERT.V1"
	CodeEntityRead      = "HERA.UNIV.ENTITY.READ.V1"
	CodeFieldSet        = "HERA.UNIV.ENTITY.FIELD.SET.V1"
	CodeRelCreate       = "HERA.UNIV.REL.CREATE.V1"
	CodeConfigRead      = "HERA.UNIV.CONFIG.READ.V1"
	CodeConfigWrite     = "HERA.UNIV.CONFIG.WRITE.V1"
)

// Service implements the universal procedure handlers over the schema-layer
// repositories.
type Service struct {
	entities repository.EntityRepository
	fields   repository.FieldRepository
	rels     repository.RelationshipRepository
	txns     repository.TransactionRepository
	logger   *zap.Logger
}

func New(
	entities repository.EntityRepository,
	fields repository.FieldRepository,
	rels repository.RelationshipRepository,
	txns repository.TransactionRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		entities: entities,
		fields:   fields,
		rels:     rels,
		txns:     txns,
		logger:   logger,
	}
}

// Register wires every handler into the registry.
func (s *Service) Register(r *invoke.Registry) {
	r.RegisterMutation(CodeTxnHeaderCreate, s.CreateTransactionHeader)
	r.RegisterMutation(CodeTxnHeaderStatus, s.TransitionTransactionStatus)
	r.RegisterMutation(CodeTxnLineAdd, s.AddTransactionLine)
	r.RegisterMutation(CodeTxnLineUpdate, s.UpdateTransactionLine)
	r.RegisterMutation(CodeTxnLineRemove, s.RemoveTransactionLine)
	r.RegisterQuery(CodeTxnRead, s.ReadTransaction)
	r.RegisterMutation(CodeEntityUpsert, s.UpsertEntity)
	r.RegisterQuery(CodeEntityRead, s.ReadEntity)
	r.RegisterMutation(CodeFieldSet, s.SetDynamicField)
	r.RegisterMutation(CodeRelCreate, s.CreateRelationship)
	r.RegisterQuery(CodeConfigRead, s.ReadConfig)
	r.RegisterMutation(CodeConfigWrite, s.WriteConfig)
}
