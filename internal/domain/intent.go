package domain

import "strings"

type Category string

const (
	CategoryWISMO        Category = "WISMO"
	CategoryWrongMissing Category = "WRONG_MISSING"
	CategoryNoEffect     Category = "NO_EFFECT"
	CategoryRefund       Category = "REFUND"
	CategoryOrderModify  Category = "ORDER_MODIFY"
	CategorySubscription Category = "SUBSCRIPTION"
	CategoryDiscount     Category = "DISCOUNT"
	CategoryPositive     Category = "POSITIVE"
	CategoryGeneral      Category = "GENERAL"
)

// Categories is the closed label set offered to the classifier, in prompt order.
var Categories = []Category{
	CategoryWISMO,
	CategoryWrongMissing,
	CategoryNoEffect,
	CategoryRefund,
	CategoryOrderModify,
	CategorySubscription,
	CategoryDiscount,
	CategoryPositive,
	CategoryGeneral,
}

func ParseCategory(raw string) (Category, bool) {
	candidate := Category(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range Categories {
		if c == candidate {
			return c, true
		}
	}

	return "", false
}

type Specialist string

const (
	SpecialistWISMO      Specialist = "wismo_agent"
	SpecialistIssue      Specialist = "issue_agent"
	SpecialistAccount    Specialist = "account_agent"
	SpecialistSupervisor Specialist = "supervisor"
)

// IsSpecialist reports whether s is one of the tool-bearing specialists.
// The supervisor is not a valid handoff target.
func (s Specialist) IsSpecialist() bool {
	switch s {
	case SpecialistWISMO, SpecialistIssue, SpecialistAccount:
		return true
	default:
		return false
	}
}

func (c Category) Specialist() Specialist {
	switch c {
	case CategoryWISMO:
		return SpecialistWISMO
	case CategoryWrongMissing, CategoryNoEffect, CategoryRefund:
		return SpecialistIssue
	case CategoryOrderModify, CategorySubscription, CategoryDiscount, CategoryPositive:
		return SpecialistAccount
	default:
		return SpecialistSupervisor
	}
}
