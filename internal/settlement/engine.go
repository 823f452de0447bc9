package settlement

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/ledger"
	"github.com/sooqly/sooqly-backend/internal/marketer"
	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/metrics"
	"github.com/sooqly/sooqly-backend/pkg/money"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PayoutGateway moves settled funds out to beneficiaries.
type PayoutGateway interface {
	SendToCustomer(ctx context.Context, req santimpay.TransferRequest) (santimpay.TransactionResult, error)
}

// paymentLookup is the slice of the payments repository the engine reads.
type paymentLookup interface {
	FindPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

// Service computes and executes multi-party settlement for completed
// payments on delivered orders.
type Service interface {
	PrepareSplitSettlement(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
	RecordSettlementEarnings(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
	RequestUserPayout(ctx context.Context, userID, paymentID uuid.UUID) (*models.PayoutRequest, error)
	RequestTotalUserPayout(ctx context.Context, userID uuid.UUID) (*models.PayoutRequest, error)
	SettleSplitPayout(ctx context.Context, paymentID uuid.UUID) ([]models.PayoutRequest, error)
	GetSettlement(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
	ListPayoutRequests(ctx context.Context, userID uuid.UUID) ([]models.PayoutRequest, error)
}

type service struct {
	repo     Repository
	ledger   ledger.Repository
	payments paymentLookup
	tx       txRunner
	outbox   outboxPublisher
	gateway  PayoutGateway
	rate     decimal.Decimal
	mobile   enums.PayoutMethodType
	platform uuid.UUID
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
}

// NewService builds the settlement engine. The commission rate comes from
// configuration and is parsed once here.
func NewService(
	repo Repository,
	ledgerRepo ledger.Repository,
	payments paymentLookup,
	tx txRunner,
	ob outboxPublisher,
	gateway PayoutGateway,
	cfg config.SettlementConfig,
	workflowMetrics *metrics.WorkflowMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payments lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payout gateway required")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.CommissionRate))
	if err != nil {
		return nil, fmt.Errorf("parsing commission rate %q: %w", cfg.CommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate %s out of range", rate)
	}
	mobile := enums.PayoutMethodType(strings.ToUpper(strings.TrimSpace(cfg.DefaultMobileMethod)))
	if mobile == "" {
		mobile = enums.PayoutMethodTelebirr
	}
	if !mobile.IsValid() || !mobile.IsMobile() {
		return nil, fmt.Errorf("default mobile method %q is not a mobile wallet", cfg.DefaultMobileMethod)
	}

	// The platform account is optional. When configured, the commission
	// is allocated to it and paid out like any other share.
	var platform uuid.UUID
	if trimmed := strings.TrimSpace(cfg.PlatformUserID); trimmed != "" {
		parsed, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parsing platform user id %q: %w", cfg.PlatformUserID, err)
		}
		platform = parsed
	}

	return &service{
		repo:     repo,
		ledger:   ledgerRepo,
		payments: payments,
		tx:       tx,
		outbox:   ob,
		gateway:  gateway,
		rate:     rate,
		mobile:   mobile,
		platform: platform,
		metrics:  workflowMetrics,
		logg:     logg,
	}, nil
}

// split is the computed division of one payment before persistence.
type split struct {
	commission  decimal.Decimal
	supplier    decimal.Decimal
	marketer    decimal.Decimal
	dropshipper decimal.Decimal
	owner       uuid.UUID
	suppliers   []userShare
	marketers   []userShare
	allocations types.SettlementAllocations
}

// userShare is one beneficiary's take within a single role, kept apart
// from the merged allocations so the ledger can book each role on its
// own line.
type userShare struct {
	UserID uuid.UUID
	Amount decimal.Decimal
}

// PrepareSplitSettlement computes the split once per payment. A second
// call returns the stored settlement untouched.
func (s *service) PrepareSplitSettlement(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var settlement *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByPaymentLocked(ctx, paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
		}
		if existing != nil {
			settlement = existing
			return nil
		}

		payment, order, err := s.loadSettleable(ctx, repo, paymentID)
		if err != nil {
			return err
		}

		result, err := s.computeSplit(ctx, repo, payment, order)
		if err != nil {
			return err
		}

		settlement = &models.Settlement{
			ID:                uuid.New(),
			PaymentID:         payment.ID,
			OrderID:           order.ID,
			State:             enums.SettlementStatePrepared,
			CommissionRate:    s.rate,
			TotalAmount:       payment.Amount,
			CommissionAmount:  result.commission,
			SupplierAmount:    result.supplier,
			MarketerAmount:    result.marketer,
			DropshipperAmount: result.dropshipper,
			Allocations:       result.allocations,
		}
		if err := repo.CreateSettlement(ctx, settlement); err != nil {
			s.countSettlement("error")
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create settlement")
		}

		if err := s.writeLedgerEntries(ctx, tx, payment, order, result); err != nil {
			return err
		}

		s.countSettlement("prepared")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// loadSettleable enforces the settlement gate: payment COMPLETED and
// order DELIVERED.
func (s *service) loadSettleable(ctx context.Context, repo Repository, paymentID uuid.UUID) (*models.Payment, *models.Order, error) {
	payment, err := s.payments.FindPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not completed")
	}
	order, err := repo.FindOrderWithItems(ctx, payment.OrderID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not delivered")
	}
	return payment, order, nil
}

func (s *service) computeSplit(ctx context.Context, repo Repository, payment *models.Payment, order *models.Order) (*split, error) {
	total := payment.Amount
	commission := money.ApplyRate(total, s.rate)

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	// Per-beneficiary accumulation; the builder merges duplicate users
	// and unions their roles. Suppliers and marketers are also tracked
	// per role so the ledger can book them separately.
	builder := newAllocationBuilder()
	supplierShares := newShareBuilder()
	marketerShares := newShareBuilder()

	supplierTotal := decimal.Zero
	marketerTotal := decimal.Zero
	for _, item := range order.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "settlement references missing product").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}

		if product.SupplierID != nil {
			// Supplier take per unit, falling back to the line price
			// the buyer actually paid when no supplier price is set.
			unit := item.Price
			if product.SupplierPrice != nil {
				unit = *product.SupplierPrice
			}
			share := money.Mul(unit, item.Quantity)
			supplierTotal = supplierTotal.Add(share)
			builder.add(*product.SupplierID, share, string(enums.UserRoleSupplier))
			supplierShares.add(*product.SupplierID, share)
		}

		if item.MarketerContractID != nil {
			contract, err := repo.FindContract(ctx, *item.MarketerContractID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load marketer contract")
			}
			if contract == nil {
				return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "settlement references missing contract").
					WithDetails(map[string]any{"contract_id": item.MarketerContractID.String()})
			}
			if !contract.IsActive {
				continue
			}
			share := money.ApplyRate(item.Total, marketer.NormalizeRate(contract.CommissionRate))
			marketerTotal = marketerTotal.Add(share)
			builder.add(contract.MarketerID, share, string(enums.UserRoleMarketer))
			marketerShares.add(contract.MarketerID, share)
		}
	}
	supplierTotal = money.Round(supplierTotal)
	marketerTotal = money.Round(marketerTotal)

	remainder := money.Round(total.Sub(commission).Sub(supplierTotal).Sub(marketerTotal))
	if remainder.IsNegative() {
		s.countSettlement("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "settlement split exceeds payment total").
			WithDetails(map[string]any{
				"total":      total.StringFixed(2),
				"commission": commission.StringFixed(2),
				"supplier":   supplierTotal.StringFixed(2),
				"marketer":   marketerTotal.StringFixed(2),
			})
	}

	shop, err := repo.FindShop(ctx, order.ShopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "settlement references missing shop")
	}
	if remainder.IsPositive() {
		builder.add(shop.OwnerID, remainder, string(enums.UserRoleShopOwner))
	}
	if s.platform != uuid.Nil && commission.IsPositive() {
		builder.add(s.platform, commission, string(enums.UserRolePlatform))
	}

	return &split{
		commission:  commission,
		supplier:    supplierTotal,
		marketer:    marketerTotal,
		dropshipper: remainder,
		owner:       shop.OwnerID,
		suppliers:   supplierShares.build(),
		marketers:   marketerShares.build(),
		allocations: builder.build(),
	}, nil
}

func (s *service) writeLedgerEntries(ctx context.Context, tx *gorm.DB, payment *models.Payment, order *models.Order, result *split) error {
	repo := s.ledger.WithTx(tx)

	write := func(entryType enums.LedgerEntryType, description string, amount decimal.Decimal, userID *uuid.UUID) error {
		if amount.IsZero() {
			return nil
		}
		entry := &models.LedgerEntry{
			OrderID:     order.ID,
			PaymentID:   payment.ID,
			EntryType:   entryType,
			Description: description,
			Amount:      amount,
			UserID:      userID,
		}
		if _, err := repo.GetOrCreate(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write ledger entry")
		}
		return nil
	}

	// Money in is booked positive, money owed out negative. Each role
	// gets its own line per beneficiary.
	if err := write(enums.LedgerEntryTypePayment, "payment received", payment.Amount, nil); err != nil {
		return err
	}
	if err := write(enums.LedgerEntryTypeCommission, "platform commission", result.commission, nil); err != nil {
		return err
	}
	for _, share := range result.suppliers {
		userID := share.UserID
		description := fmt.Sprintf("supplier payout %s", userID)
		if err := write(enums.LedgerEntryTypeVendorPayout, description, share.Amount.Neg(), &userID); err != nil {
			return err
		}
	}
	for _, share := range result.marketers {
		userID := share.UserID
		description := fmt.Sprintf("marketer commission %s", userID)
		if err := write(enums.LedgerEntryTypeCommission, description, share.Amount.Neg(), &userID); err != nil {
			return err
		}
	}
	if result.dropshipper.IsPositive() {
		ownerID := result.owner
		description := fmt.Sprintf("dropshipper payout %s", ownerID)
		if err := write(enums.LedgerEntryTypeVendorPayout, description, result.dropshipper.Neg(), &ownerID); err != nil {
			return err
		}
	}
	return nil
}

// RecordSettlementEarnings materializes one earning per allocation. Safe
// to call repeatedly; existing earnings are refreshed, not duplicated.
func (s *service) RecordSettlementEarnings(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByPaymentLocked(ctx, paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "settlement not prepared")
		}
		settlement = current

		for _, allocation := range current.Allocations {
			user, err := repo.FindUser(ctx, allocation.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beneficiary")
			}
			var merchantSnapshot *string
			if user != nil && user.MerchantID != nil {
				snapshot := *user.MerchantID
				merchantSnapshot = &snapshot
			}

			existing, err := repo.FindEarning(ctx, allocation.UserID, current.PaymentID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load earning")
			}
			if existing == nil {
				existing = &models.Earning{
					ID:        uuid.New(),
					UserID:    allocation.UserID,
					PaymentID: current.PaymentID,
					OrderID:   current.OrderID,
					Status:    enums.EarningStatusAvailable,
				}
			}
			if existing.Status == enums.EarningStatusPaidOut {
				continue
			}
			existing.Amount = allocation.Amount
			existing.Roles = strings.Join(allocation.Roles, ",")
			existing.MerchantIDSnapshot = merchantSnapshot
			if err := repo.SaveEarning(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save earning")
			}
		}

		if !current.State.AtLeast(enums.SettlementStateEarningsRecorded) {
			if err := repo.UpdateSettlement(ctx, current.ID, map[string]any{
				"state": enums.SettlementStateEarningsRecorded,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance settlement state")
			}
			current.State = enums.SettlementStateEarningsRecorded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func (s *service) GetSettlement(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	if settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
	}
	return settlement, nil
}

func (s *service) ListPayoutRequests(ctx context.Context, userID uuid.UUID) ([]models.PayoutRequest, error) {
	requests, err := s.repo.ListPayoutRequests(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout requests")
	}
	return requests, nil
}

func (s *service) countSettlement(outcome string) {
	if s.metrics != nil {
		s.metrics.IncSettlement(outcome)
	}
}

func (s *service) countPayout(outcome string) {
	if s.metrics != nil {
		s.metrics.IncPayout(outcome)
	}
}

// allocationBuilder merges shares per user and unions their roles.
type allocationBuilder struct {
	order  []uuid.UUID
	shares map[uuid.UUID]*types.SettlementAllocation
}

func newAllocationBuilder() *allocationBuilder {
	return &allocationBuilder{shares: map[uuid.UUID]*types.SettlementAllocation{}}
}

func (b *allocationBuilder) add(userID uuid.UUID, amount decimal.Decimal, role string) {
	existing, ok := b.shares[userID]
	if !ok {
		b.order = append(b.order, userID)
		b.shares[userID] = &types.SettlementAllocation{
			UserID: userID,
			Amount: money.Round(amount),
			Roles:  []string{role},
			Status: "PENDING",
		}
		return
	}
	existing.Amount = money.Round(existing.Amount.Add(amount))
	for _, held := range existing.Roles {
		if held == role {
			return
		}
	}
	existing.Roles = append(existing.Roles, role)
	sort.Strings(existing.Roles)
}

func (b *allocationBuilder) build() types.SettlementAllocations {
	result := make(types.SettlementAllocations, 0, len(b.order))
	for _, userID := range b.order {
		result = append(result, *b.shares[userID])
	}
	return result
}

// shareBuilder merges amounts per user within a single role.
type shareBuilder struct {
	order   []uuid.UUID
	amounts map[uuid.UUID]decimal.Decimal
}

func newShareBuilder() *shareBuilder {
	return &shareBuilder{amounts: map[uuid.UUID]decimal.Decimal{}}
}

func (b *shareBuilder) add(userID uuid.UUID, amount decimal.Decimal) {
	existing, ok := b.amounts[userID]
	if !ok {
		b.order = append(b.order, userID)
		b.amounts[userID] = money.Round(amount)
		return
	}
	b.amounts[userID] = money.Round(existing.Add(amount))
}

func (b *shareBuilder) build() []userShare {
	result := make([]userShare, 0, len(b.order))
	for _, userID := range b.order {
		result = append(result, userShare{UserID: userID, Amount: b.amounts[userID]})
	}
	return result
}
