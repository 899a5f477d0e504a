package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/repository/memory"
	"github.com/gaze-network/collectible-ledger/pkg/decimals"
	"github.com/gaze-network/collectible-ledger/pkg/eventbus"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin    = entity.Address("0x000000000000000000000000000000000000ad01")
	buyer1   = entity.Address("0x00000000000000000000000000000000000000b1")
	buyer2   = entity.Address("0x00000000000000000000000000000000000000b2")
	stranger = entity.Address("0x0000000000000000000000000000000000000bad")
)

type recordingPublisher struct {
	mu       sync.Mutex
	topic    string
	messages []EventMessage
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payloads ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	for _, payload := range payloads {
		p.messages = append(p.messages, payload.(EventMessage))
	}
	return nil
}

func amount(s string) uint128.Uint128 {
	return utils.Must(decimals.ParseAmount(s, NativeDecimals))
}

// failingDeleteOfferRepository fails DeleteOffer inside transactions once failDeleteOffer is set.
type failingDeleteOfferRepository struct {
	datagateway.CollectibleDataGateway
	failDeleteOffer bool
}

func (r *failingDeleteOfferRepository) BeginCollectibleTx(ctx context.Context) (datagateway.CollectibleDataGatewayWithTx, error) {
	tx, err := r.CollectibleDataGateway.BeginCollectibleTx(ctx)
	if err != nil {
		return nil, err
	}
	return &failingDeleteOfferTx{CollectibleDataGatewayWithTx: tx, fail: r.failDeleteOffer}, nil
}

type failingDeleteOfferTx struct {
	datagateway.CollectibleDataGatewayWithTx
	fail bool
}

func (tx *failingDeleteOfferTx) DeleteOffer(ctx context.Context, itemID uint64) error {
	if tx.fail {
		return errors.New("datastore unavailable")
	}
	return tx.CollectibleDataGatewayWithTx.DeleteOffer(ctx, itemID)
}

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *OfferBook) {
	t.Helper()
	return newTestLedgerWithDataGateway(t, memory.NewRepository(), opts...)
}

func newTestLedgerWithDataGateway(t *testing.T, dg datagateway.CollectibleDataGateway, opts ...Option) (*Ledger, *OfferBook) {
	t.Helper()
	l := New(dg, opts...)
	_, err := l.Deploy(context.Background(), DeployParams{
		Administrator: admin,
		Name:          "EtherPapes",
		Symbol:        "PAPE",
		CID:           "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		ContractURI:   "ipfs://contract",
	})
	require.NoError(t, err)
	return l, NewOfferBook(l)
}

func claimNext(t *testing.T, l *Ledger, caller entity.Address) uint64 {
	t.Helper()
	price, err := l.NextPrice(context.Background())
	require.NoError(t, err)
	receipt, err := l.Claim(context.Background(), caller, price)
	require.NoError(t, err)
	return receipt.ItemID
}

func TestPrice(t *testing.T) {
	testcases := []struct {
		n           uint64
		expected    string
		expectedErr error
	}{
		{n: 1, expected: "0.001"},
		{n: 2, expected: "0.004"},
		{n: 3, expected: "0.009"},
		{n: 10, expected: "0.1"},
		{n: 100, expected: "10"},
		{n: 0, expectedErr: errs.InvalidArgument},
		{n: 101, expectedErr: errs.InvalidArgument},
	}
	for _, tc := range testcases {
		t.Run(fmt.Sprint(tc.n), func(t *testing.T) {
			price, err := Price(tc.n)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, decimals.FormatAmount(price, NativeDecimals))
		})
	}
}

func TestSupportsInterface(t *testing.T) {
	testcases := []struct {
		selector uint32
		expected bool
	}{
		{0x80ac58cd, true},
		{0x5b5e139f, true},
		{0x01ffc9a7, true},
		{0xffffffff, false},
		{0x00000000, false},
		{0x780e9d63, false},
	}
	for _, tc := range testcases {
		t.Run(fmt.Sprintf("%#08x", tc.selector), func(t *testing.T) {
			assert.Equal(t, tc.expected, SupportsInterface(tc.selector))
		})
	}
}

func TestScenarioClaimTwo(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	receipt, err := l.Claim(ctx, buyer1, amount("0.001"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.ItemID)

	receipt, err = l.Claim(ctx, buyer2, amount("0.004"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), receipt.ItemID)

	count, err := l.TokenCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	owner, err := l.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, buyer1, owner)
	owner, err = l.OwnerOf(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, buyer2, owner)

	require.Len(t, receipt.Events, 1)
	assert.Equal(t, entity.EventKindTransfer, receipt.Events[0].Kind)
	assert.Equal(t, entity.ZeroAddress, receipt.Events[0].From)
	assert.Equal(t, buyer2, receipt.Events[0].To)
	assert.Equal(t, uint64(2), receipt.Events[0].Sequence)
}

func TestScenarioOfferAndBuy(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)

	_, err := l.Claim(ctx, buyer1, amount("0.001"))
	require.NoError(t, err)

	_, err = book.MakeOffer(ctx, buyer1, 1, amount("2.0"), "")
	require.NoError(t, err)

	offer, err := book.OfferFor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, amount("2"), offer.Price)
	assert.False(t, offer.IsDesignated())

	receipt, err := book.Buy(ctx, buyer2, 1, amount("2.0"))
	require.NoError(t, err)

	owner, err := l.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, buyer2, owner)

	_, err = book.OfferFor(ctx, 1)
	assert.ErrorIs(t, err, errs.NoActiveOffer)

	require.Len(t, receipt.Events, 2)
	assert.Equal(t, entity.EventKindTransfer, receipt.Events[0].Kind)
	assert.Equal(t, entity.EventKindSale, receipt.Events[1].Kind)
	assert.Equal(t, buyer1, receipt.Events[1].From)
	assert.Equal(t, buyer2, receipt.Events[1].To)
	assert.Equal(t, amount("2"), receipt.Events[1].Price)
	assert.Less(t, receipt.Events[0].Sequence, receipt.Events[1].Sequence)
}

func TestScenarioSupplyExhausted(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	for n := uint64(1); n <= MaxSupply; n++ {
		price, err := Price(n)
		require.NoError(t, err)
		receipt, err := l.Claim(ctx, buyer1, price)
		require.NoError(t, err)
		require.Equal(t, n, receipt.ItemID)
	}

	_, err := l.Claim(ctx, buyer2, amount("10"))
	assert.ErrorIs(t, err, errs.SupplyExhausted)
	_, err = l.Claim(ctx, buyer2, amount("10.201"))
	assert.ErrorIs(t, err, errs.SupplyExhausted)
	_, err = l.NextPrice(ctx)
	assert.ErrorIs(t, err, errs.SupplyExhausted)

	count, err := l.TokenCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, MaxSupply, count)
	assert.Equal(t, MaxSupply, l.TotalSupply())

	balance, err := l.BalanceOf(ctx, buyer1)
	require.NoError(t, err)
	assert.Equal(t, MaxSupply, balance)
}

func TestClaimRequiresExactPayment(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	claimNext(t, l, buyer1)

	testcases := []struct {
		name    string
		payment uint128.Uint128
	}{
		{"underpay", amount("0.003")},
		{"overpay", amount("0.005")},
		{"price of the previous claim", amount("0.001")},
		{"zero", uint128.Zero},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Claim(ctx, buyer2, tc.payment)
			assert.ErrorIs(t, err, errs.IncorrectPayment)

			count, err := l.TokenCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), count)
		})
	}

	_, err := l.Claim(ctx, entity.ZeroAddress, amount("0.004"))
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestClaimBeforeDeploy(t *testing.T) {
	l := New(memory.NewRepository())
	_, err := l.Claim(context.Background(), buyer1, amount("0.001"))
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("by owner", func(t *testing.T) {
		l, _ := newTestLedger(t)
		id := claimNext(t, l, buyer1)

		receipt, err := l.Transfer(ctx, buyer1, buyer1, buyer2, id)
		require.NoError(t, err)
		require.Len(t, receipt.Events, 1)
		assert.Equal(t, buyer1, receipt.Events[0].From)
		assert.Equal(t, buyer2, receipt.Events[0].To)

		owner, err := l.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, buyer2, owner)
	})

	t.Run("by approved delegate clears approval", func(t *testing.T) {
		l, _ := newTestLedger(t)
		id := claimNext(t, l, buyer1)
		_, err := l.Approve(ctx, buyer1, stranger, id)
		require.NoError(t, err)

		_, err = l.Transfer(ctx, stranger, buyer1, buyer2, id)
		require.NoError(t, err)

		approved, err := l.GetApproved(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.ZeroAddress, approved)

		// the delegate lost its authority with the transfer
		_, err = l.Transfer(ctx, stranger, buyer2, stranger, id)
		assert.ErrorIs(t, err, errs.NotOwnerOrApproved)
	})

	t.Run("by operator", func(t *testing.T) {
		l, _ := newTestLedger(t)
		id := claimNext(t, l, buyer1)
		_, err := l.SetApprovalForAll(ctx, buyer1, stranger, true)
		require.NoError(t, err)

		_, err = l.Transfer(ctx, stranger, buyer1, buyer2, id)
		require.NoError(t, err)
	})

	t.Run("rejections", func(t *testing.T) {
		l, _ := newTestLedger(t)
		id := claimNext(t, l, buyer1)

		testcases := []struct {
			name        string
			caller      entity.Address
			from        entity.Address
			to          entity.Address
			id          uint64
			expectedErr error
		}{
			{"stranger", stranger, buyer1, buyer2, id, errs.NotOwnerOrApproved},
			{"from is not the owner", buyer2, buyer2, stranger, id, errs.NotOwnerOrApproved},
			{"zero caller", entity.ZeroAddress, buyer1, buyer2, id, errs.NotOwnerOrApproved},
			{"zero recipient", buyer1, buyer1, entity.ZeroAddress, id, errs.InvalidArgument},
			{"unclaimed item", buyer1, buyer1, buyer2, 2, errs.NoSuchItem},
			{"out of range", buyer1, buyer1, buyer2, 101, errs.NoSuchItem},
			{"item zero", buyer1, buyer1, buyer2, 0, errs.NoSuchItem},
		}
		for _, tc := range testcases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := l.Transfer(ctx, tc.caller, tc.from, tc.to, tc.id)
				assert.ErrorIs(t, err, tc.expectedErr)

				owner, err := l.OwnerOf(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, buyer1, owner)
			})
		}
	})
}

func TestTransferInvalidatesOffer(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	_, err := book.MakeOffer(ctx, buyer1, id, amount("1"), "")
	require.NoError(t, err)

	_, err = l.Transfer(ctx, buyer1, buyer1, buyer2, id)
	require.NoError(t, err)

	_, err = book.OfferFor(ctx, id)
	assert.ErrorIs(t, err, errs.NoActiveOffer)

	_, err = book.Buy(ctx, stranger, id, amount("1"))
	assert.ErrorIs(t, err, errs.ItemNotForSale)
}

func TestMakeOfferUnauthorized(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	for _, caller := range []entity.Address{stranger, buyer2, admin, entity.ZeroAddress} {
		t.Run(caller.String(), func(t *testing.T) {
			_, err := book.MakeOffer(ctx, caller, id, amount("1"), "")
			assert.ErrorIs(t, err, errs.NotOwnerOrApproved)
		})
	}

	_, err := book.MakeOffer(ctx, buyer1, 2, amount("1"), "")
	assert.ErrorIs(t, err, errs.NoSuchItem)

	// the previous owner loses the right to list the item
	_, err = l.Transfer(ctx, buyer1, buyer1, buyer2, id)
	require.NoError(t, err)
	_, err = book.MakeOffer(ctx, buyer1, id, amount("1"), "")
	assert.ErrorIs(t, err, errs.NotOwnerOrApproved)

	_, err = book.OfferFor(ctx, id)
	assert.ErrorIs(t, err, errs.NoActiveOffer)
}

func TestMakeOfferByDelegates(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	_, err := l.Approve(ctx, buyer1, buyer2, id)
	require.NoError(t, err)
	_, err = book.MakeOffer(ctx, buyer2, id, amount("1"), "")
	require.NoError(t, err)

	_, err = l.SetApprovalForAll(ctx, buyer1, stranger, true)
	require.NoError(t, err)
	receipt, err := book.MakeOffer(ctx, stranger, id, amount("3"), buyer2)
	require.NoError(t, err)
	assert.Equal(t, entity.EventKindOfferCreated, receipt.Events[0].Kind)

	offer, err := book.OfferFor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, amount("3"), offer.Price)
	assert.Equal(t, buyer2, offer.Buyer)
	assert.Equal(t, buyer1, offer.Seller)
}

func TestBuyRejectionsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	claimNext(t, l, buyer1)
	designated := claimNext(t, l, buyer1)

	_, err := book.MakeOffer(ctx, buyer1, designated, amount("2"), buyer2)
	require.NoError(t, err)

	eventsBefore, err := l.Events(ctx, EventsFilter{})
	require.NoError(t, err)

	testcases := []struct {
		name        string
		caller      entity.Address
		id          uint64
		payment     string
		expectedErr error
	}{
		{"no offer", buyer2, 1, "5", errs.ItemNotForSale},
		{"unclaimed item", buyer2, 50, "5", errs.ItemNotForSale},
		{"out of range", buyer2, 500, "5", errs.ItemNotForSale},
		{"underpay", buyer2, designated, "1.999", errs.InsufficientPayment},
		{"underpay by a stranger", stranger, designated, "1", errs.InsufficientPayment},
		{"not the designated buyer", stranger, designated, "2", errs.UnauthorizedBuyer},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := book.Buy(ctx, tc.caller, tc.id, amount(tc.payment))
			assert.ErrorIs(t, err, tc.expectedErr)

			owner, err := l.OwnerOf(ctx, designated)
			require.NoError(t, err)
			assert.Equal(t, buyer1, owner)

			offer, err := book.OfferFor(ctx, designated)
			require.NoError(t, err)
			assert.Equal(t, amount("2"), offer.Price)

			events, err := l.Events(ctx, EventsFilter{})
			require.NoError(t, err)
			assert.Equal(t, eventsBefore, events)
		})
	}

	receipt, err := book.Buy(ctx, buyer2, designated, amount("2"))
	require.NoError(t, err)
	assert.Equal(t, designated, receipt.ItemID)
}

func TestBuyOverpaymentIsKept(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	_, err := book.MakeOffer(ctx, buyer1, id, amount("1"), "")
	require.NoError(t, err)

	receipt, err := book.Buy(ctx, buyer2, id, amount("1.5"))
	require.NoError(t, err)
	sale, ok := lo.Find(receipt.Events, func(e entity.Event) bool { return e.Kind == entity.EventKindSale })
	require.True(t, ok)
	assert.Equal(t, amount("1.5"), sale.Price)
}

func TestBuyOwnOffer(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	_, err := book.MakeOffer(ctx, buyer1, id, uint128.Zero, "")
	require.NoError(t, err)
	_, err = book.Buy(ctx, buyer1, id, uint128.Zero)
	require.NoError(t, err)

	owner, err := l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer1, owner)
	_, err = book.OfferFor(ctx, id)
	assert.ErrorIs(t, err, errs.NoActiveOffer)
}

func TestConcurrentBuyersSettleOnce(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	id := claimNext(t, l, buyer1)
	_, err := book.MakeOffer(ctx, buyer1, id, amount("1"), "")
	require.NoError(t, err)

	buyers := []entity.Address{buyer2, stranger, admin}
	results := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer entity.Address) {
			defer wg.Done()
			_, results[i] = book.Buy(ctx, buyer, id, amount("1"))
		}(i, buyer)
	}
	wg.Wait()

	succeeded := lo.CountBy(results, func(err error) bool { return err == nil })
	assert.Equal(t, 1, succeeded)
	for _, err := range results {
		if err != nil {
			assert.ErrorIs(t, err, errs.ItemNotForSale)
		}
	}
}

func TestBalancesSumToIssuedCount(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	holders := []entity.Address{buyer1, buyer2, stranger}

	for i := 0; i < 9; i++ {
		claimNext(t, l, holders[i%len(holders)])
	}
	_, err := l.Transfer(ctx, buyer1, buyer1, buyer2, 1)
	require.NoError(t, err)
	_, err = book.MakeOffer(ctx, stranger, 3, amount("0.5"), "")
	require.NoError(t, err)
	_, err = book.Buy(ctx, buyer1, 3, amount("0.5"))
	require.NoError(t, err)

	var total uint64
	for _, holder := range holders {
		balance, err := l.BalanceOf(ctx, holder)
		require.NoError(t, err)
		total += balance
	}
	count, err := l.TokenCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, count, total)

	_, err = l.BalanceOf(ctx, entity.ZeroAddress)
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	_, err := l.Approve(ctx, buyer1, buyer1, id)
	assert.ErrorIs(t, err, errs.InvalidArgument)
	_, err = l.Approve(ctx, stranger, stranger, id)
	assert.ErrorIs(t, err, errs.NotOwnerOrApproved)
	_, err = l.Approve(ctx, buyer1, buyer2, 7)
	assert.ErrorIs(t, err, errs.NoSuchItem)

	receipt, err := l.Approve(ctx, buyer1, buyer2, id)
	require.NoError(t, err)
	assert.Equal(t, entity.EventKindApproval, receipt.Events[0].Kind)
	assert.Equal(t, buyer1, receipt.Events[0].From)
	assert.Equal(t, buyer2, receipt.Events[0].To)

	// a delegate cannot re-delegate
	_, err = l.Approve(ctx, buyer2, stranger, id)
	assert.ErrorIs(t, err, errs.NotOwnerOrApproved)

	approved, err := l.GetApproved(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer2, approved)

	_, err = l.Approve(ctx, buyer1, entity.ZeroAddress, id)
	require.NoError(t, err)
	approved, err = l.GetApproved(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ZeroAddress, approved)

	_, err = l.GetApproved(ctx, 2)
	assert.ErrorIs(t, err, errs.NoSuchItem)
}

func TestSetApprovalForAll(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	_, err := l.SetApprovalForAll(ctx, buyer1, buyer1, true)
	assert.ErrorIs(t, err, errs.InvalidArgument)
	_, err = l.SetApprovalForAll(ctx, buyer1, entity.ZeroAddress, true)
	assert.ErrorIs(t, err, errs.InvalidArgument)

	receipt, err := l.SetApprovalForAll(ctx, buyer1, buyer2, true)
	require.NoError(t, err)
	assert.True(t, receipt.Events[0].Approved)

	ok, err := l.IsApprovedForAll(ctx, buyer1, buyer2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = l.IsApprovedForAll(ctx, buyer2, buyer1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.SetApprovalForAll(ctx, buyer1, buyer2, false)
	require.NoError(t, err)
	ok, err = l.IsApprovedForAll(ctx, buyer1, buyer2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetContractURI(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	for _, caller := range []entity.Address{stranger, buyer1, entity.ZeroAddress} {
		_, err := l.SetContractURI(ctx, caller, "ipfs://hijacked")
		assert.ErrorIs(t, err, errs.NotAdministrator)
	}
	uri, err := l.ContractURI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://contract", uri)

	receipt, err := l.SetContractURI(ctx, admin, "ipfs://updated")
	require.NoError(t, err)
	assert.Equal(t, entity.EventKindContractURIUpdated, receipt.Events[0].Kind)

	uri, err = l.ContractURI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://updated", uri)
}

func TestDeployIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	claimNext(t, l, buyer1)

	deployment, err := l.Deploy(ctx, DeployParams{Administrator: stranger, Name: "Other", ContractURI: "ipfs://other"})
	require.NoError(t, err)
	assert.Equal(t, admin, deployment.Administrator)
	assert.Equal(t, uint64(1), deployment.IssuedCount)

	_, err = New(memory.NewRepository()).Deploy(ctx, DeployParams{})
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	id := claimNext(t, l, buyer1)

	name, err := l.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EtherPapes", name)

	symbol, err := l.Symbol(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PAPE", symbol)

	uri, err := l.TokenURI(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi/1", uri)

	_, err = l.TokenURI(ctx, 2)
	assert.ErrorIs(t, err, errs.NoSuchItem)
	_, err = l.OwnerOf(ctx, 2)
	assert.ErrorIs(t, err, errs.NoSuchItem)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	l, book := newTestLedger(t)
	claimNext(t, l, buyer1)
	claimNext(t, l, buyer2)
	_, err := book.MakeOffer(ctx, buyer1, 1, amount("1"), "")
	require.NoError(t, err)

	events, err := l.Events(ctx, EventsFilter{})
	require.NoError(t, err)
	kinds := lo.Map(events, func(e entity.Event, _ int) entity.EventKind { return e.Kind })
	assert.Equal(t, []entity.EventKind{entity.EventKindTransfer, entity.EventKindTransfer, entity.EventKindOfferCreated}, kinds)

	itemID := uint64(1)
	events, err = l.Events(ctx, EventsFilter{ItemID: &itemID})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = l.Events(ctx, EventsFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(2), events[0].Sequence)

	_, err = l.Events(ctx, EventsFilter{Limit: -1})
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestPublishesCommittedEvents(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	l, book := newTestLedger(t, WithPublisher(publisher, "collectible.events"))

	id := claimNext(t, l, buyer1)
	_, err := book.MakeOffer(ctx, buyer1, id, amount("0.25"), "")
	require.NoError(t, err)
	_, err = book.Buy(ctx, buyer2, id, amount("0.25"))
	require.NoError(t, err)

	// rejected calls publish nothing
	_, err = book.Buy(ctx, buyer2, id, amount("0.25"))
	require.Error(t, err)

	assert.Equal(t, "collectible.events", publisher.topic)
	kinds := lo.Map(publisher.messages, func(m EventMessage, _ int) string { return m.Kind })
	assert.Equal(t, []string{"transfer", "offer_created", "transfer", "sale"}, kinds)
	assert.Equal(t, "0.25", publisher.messages[3].Price)
	assert.Equal(t, uint64(4), publisher.messages[3].Sequence)
}

func TestPublishesInLogOrderThroughEventBus(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.New(eventbus.Config{})
	defer func() { require.NoError(t, bus.Close()) }()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var received []EventMessage
	err := bus.Subscribe(subCtx, eventbus.DefaultTopic, func(_ context.Context, msg *message.Message) error {
		var m EventMessage
		if err := json.Unmarshal(msg.Payload, &m); err != nil {
			return err
		}
		mu.Lock()
		received = append(received, m)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	l, book := newTestLedger(t, WithPublisher(bus, eventbus.DefaultTopic))
	for i := 0; i < 5; i++ {
		id := claimNext(t, l, buyer1)
		_, err = book.MakeOffer(ctx, buyer1, id, amount("0.5"), "")
		require.NoError(t, err)
		_, err = book.Buy(ctx, buyer2, id, amount("0.5"))
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 20)
	for i, m := range received {
		assert.Equal(t, uint64(i+1), m.Sequence)
	}
	kinds := lo.Map(received[:4], func(m EventMessage, _ int) string { return m.Kind })
	assert.Equal(t, []string{"transfer", "offer_created", "transfer", "sale"}, kinds)
}

func TestBuyFailureInTransferCommitsNothing(t *testing.T) {
	ctx := context.Background()
	dg := &failingDeleteOfferRepository{CollectibleDataGateway: memory.NewRepository()}
	l, book := newTestLedgerWithDataGateway(t, dg)

	id := claimNext(t, l, buyer1)
	_, err := book.MakeOffer(ctx, buyer1, id, amount("2.0"), "")
	require.NoError(t, err)
	eventsBefore, err := l.Events(ctx, EventsFilter{})
	require.NoError(t, err)

	dg.failDeleteOffer = true
	_, err = book.Buy(ctx, buyer2, id, amount("2.0"))
	require.Error(t, err)

	owner, err := l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer1, owner)

	offer, err := book.OfferFor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, amount("2"), offer.Price)
	assert.Equal(t, buyer1, offer.Seller)

	balance, err := l.BalanceOf(ctx, buyer1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance)
	balance, err = l.BalanceOf(ctx, buyer2)
	require.NoError(t, err)
	assert.Zero(t, balance)

	eventsAfter, err := l.Events(ctx, EventsFilter{})
	require.NoError(t, err)
	assert.Equal(t, eventsBefore, eventsAfter)

	// the same purchase succeeds once the datastore recovers
	dg.failDeleteOffer = false
	_, err = book.Buy(ctx, buyer2, id, amount("2.0"))
	require.NoError(t, err)
	owner, err = l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer2, owner)
}

func TestPublishFailureDoesNotRevert(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{err: errors.New("bus is down")}
	l, _ := newTestLedger(t, WithPublisher(publisher, "collectible.events"))

	id := claimNext(t, l, buyer1)

	owner, err := l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer1, owner)
}

func TestCancelledCallCommitsNothing(t *testing.T) {
	l, _ := newTestLedger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Claim(ctx, buyer1, amount("0.001"))
	assert.ErrorIs(t, err, context.Canceled)

	count, err := l.TokenCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
