package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PricingKind 计价方式
type PricingKind string

const (
	PricingStandard    PricingKind = "Standard"
	PricingMember      PricingKind = "Member"
	PricingPromotional PricingKind = "Promotional"
)

// PricingPolicy 计价策略，值类型，复制后互不影响
type PricingPolicy struct {
	Kind PricingKind `json:"kind" gorm:"size:20;not null;default:Standard"`
	Rate float64     `json:"rate" gorm:"type:decimal(6,4);not null"`
}

// 旧存档只记录计价方式名称时使用的折扣率
const (
	DefaultMemberRate    = 0.9
	DefaultPromotionRate = 0.8
)

func StandardPricing() PricingPolicy {
	return PricingPolicy{Kind: PricingStandard, Rate: 1}
}

func MemberDiscount(rate float64) PricingPolicy {
	return PricingPolicy{Kind: PricingMember, Rate: rate}
}

func Promotional(rate float64) PricingPolicy {
	return PricingPolicy{Kind: PricingPromotional, Rate: rate}
}

// ParsePricing 解析计价方式，兼容旧数据中的 Normal/Campaign 写法
func ParsePricing(kind string, rate float64) (PricingPolicy, error) {
	var p PricingPolicy
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "standard", "normal":
		p = StandardPricing()
	case "member", "memberdiscount", "member_discount":
		p = MemberDiscount(rate)
	case "promotional", "promotion", "campaign":
		p = Promotional(rate)
	default:
		return PricingPolicy{}, fmt.Errorf("%w: unknown pricing kind %q", ErrConfiguration, kind)
	}
	if err := p.Validate(); err != nil {
		return PricingPolicy{}, err
	}
	return p, nil
}

func (p PricingPolicy) Validate() error {
	switch p.Kind {
	case "", PricingStandard:
		return nil
	case PricingMember, PricingPromotional:
		if p.Rate < 0 {
			return fmt.Errorf("%w: negative pricing rate %v", ErrConfiguration, p.Rate)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown pricing kind %q", ErrConfiguration, p.Kind)
}

// Total 计算工单总价
func (p PricingPolicy) Total(items []WOItem, hourlyRate float64) float64 {
	subtotal := Subtotal(items, hourlyRate)
	switch p.Kind {
	case PricingMember, PricingPromotional:
		return subtotal * p.Rate
	}
	return subtotal
}

// Subtotal 折扣前合计
func Subtotal(items []WOItem, hourlyRate float64) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Subtotal(hourlyRate)
	}
	return sum
}

// UnmarshalJSON 兼容旧存档中只保存名称的计价方式，如 "Member"、"Campaign"
func (p *PricingPolicy) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParsePricing(name, 0)
		if err != nil {
			return err
		}
		switch parsed.Kind {
		case PricingMember:
			parsed.Rate = DefaultMemberRate
		case PricingPromotional:
			parsed.Rate = DefaultPromotionRate
		}
		*p = parsed
		return nil
	}
	type plain PricingPolicy
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = PricingPolicy(v)
	return nil
}
