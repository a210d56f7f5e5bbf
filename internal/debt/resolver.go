// Package debt derives "who owes whom" relations. The two modes answer
// different questions and are not guaranteed to agree: SettlementPlan works
// on the aggregate balance vector, which already reflects confirmed
// settlements, while PairwiseNet works on raw expense splits only and shows
// gross transaction debt. Both are pure functions so every presentation
// call site shares the same implementation.
package debt

import (
	"sort"

	"github.com/vishal-ch336/divido/internal/ledger"
	"github.com/vishal-ch336/divido/internal/money"
)

// Relation is a derived, transient view of a single directional debt.
// Never persisted; recomputed on demand.
type Relation struct {
	FromUserID int64       `json:"from_user_id"`
	ToUserID   int64       `json:"to_user_id"`
	Amount     money.Cents `json:"amount"`
}

// ExpenseRecord is the raw material for PairwiseNet: who paid and how the
// amount was split.
type ExpenseRecord struct {
	PayerID int64
	Splits  []SplitLine
}

// SplitLine is one participant's owed portion of an expense
type SplitLine struct {
	UserID int64
	Amount money.Cents
}

// SettlementPlan computes a minimal-transaction settlement plan from the
// current balance vector. Creditors are matched against debtors greedily,
// largest first; ties keep the stable input order. The emitted amounts
// reconstruct the full imbalance: applying them drives every balance to
// exactly zero.
func SettlementPlan(balances []ledger.MemberBalance) []Relation {
	var creditors, debtors []ledger.MemberBalance
	for _, b := range balances {
		switch {
		case b.Balance > 0:
			creditors = append(creditors, b)
		case b.Balance < 0:
			debtors = append(debtors, b)
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].Balance > creditors[j].Balance
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Balance < debtors[j].Balance
	})

	var relations []Relation
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := creditor.Balance
		if owed := debtor.Balance.Abs(); owed < amount {
			amount = owed
		}

		if amount > 0 {
			relations = append(relations, Relation{
				FromUserID: debtor.UserID,
				ToUserID:   creditor.UserID,
				Amount:     amount,
			})
		}

		creditor.Balance -= amount
		debtor.Balance += amount

		if debtor.Balance == 0 {
			i++
		}
		if creditor.Balance == 0 {
			j++
		}
	}

	return relations
}

// pair is a directional debtor→creditor key
type pair struct {
	from, to int64
}

// PairwiseNet accumulates, per (ower, payer) pair, every split where the
// participant is not the payer, then consolidates opposing debts between the
// same two members into a single directional amount. Pairs that cancel
// exactly are dropped. The result reflects actual transaction provenance:
// no three-party rerouting, and confirmed settlements are not subtracted.
func PairwiseNet(expenses []ExpenseRecord) []Relation {
	totals := make(map[pair]money.Cents)
	var order []pair

	for _, e := range expenses {
		for _, line := range e.Splits {
			if line.UserID == e.PayerID {
				continue
			}
			key := pair{from: line.UserID, to: e.PayerID}
			if _, seen := totals[key]; !seen {
				order = append(order, key)
			}
			totals[key] += line.Amount
		}
	}

	consolidated := make(map[pair]money.Cents)
	var resultOrder []pair
	for _, key := range order {
		amount := totals[key]
		reverse := pair{from: key.to, to: key.from}

		if reverseAmount, ok := consolidated[reverse]; ok {
			net := reverseAmount - amount
			switch {
			case net > 0:
				consolidated[reverse] = net
			case net < 0:
				delete(consolidated, reverse)
				consolidated[key] = -net
				resultOrder = append(resultOrder, key)
			default:
				delete(consolidated, reverse)
			}
			continue
		}

		consolidated[key] = amount
		resultOrder = append(resultOrder, key)
	}

	var relations []Relation
	for _, key := range resultOrder {
		amount, ok := consolidated[key]
		if !ok || amount <= 0 {
			continue
		}
		relations = append(relations, Relation{
			FromUserID: key.from,
			ToUserID:   key.to,
			Amount:     amount,
		})
	}

	return relations
}
