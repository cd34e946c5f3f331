package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestEntitlementFromMetadata(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want Entitlement
	}{
		{
			name: "пустой мешок атрибутов",
			meta: map[string]any{},
			want: Entitlement{},
		},
		{
			name: "числа из JSON-декодера",
			meta: map[string]any{
				"trialExpireDate":       float64(1768651200000),
				"hasPremium":            true,
				"lastSubscriptionCheck": float64(1768000000000),
			},
			want: Entitlement{
				TrialExpireDate:       int64Ptr(1768651200000),
				HasPremium:            true,
				LastSubscriptionCheck: int64Ptr(1768000000000),
			},
		},
		{
			name: "целые типы из кеша",
			meta: map[string]any{
				"trialExpireDate":       int64(1768651200000),
				"lastSubscriptionCheck": int(1768000000000),
			},
			want: Entitlement{
				TrialExpireDate:       int64Ptr(1768651200000),
				LastSubscriptionCheck: int64Ptr(1768000000000),
			},
		},
		{
			name: "json.Number",
			meta: map[string]any{
				"trialExpireDate": json.Number("1768651200000"),
			},
			want: Entitlement{TrialExpireDate: int64Ptr(1768651200000)},
		},
		{
			name: "явный null и посторонние ключи игнорируются",
			meta: map[string]any{
				"trialExpireDate": nil,
				"hasPremium":      false,
				"provider":        "google",
			},
			want: Entitlement{},
		},
		{
			name: "нечисловое значение трактуется как отсутствие",
			meta: map[string]any{
				"trialExpireDate": "soon",
				"hasPremium":      "yes",
			},
			want: Entitlement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntitlementFromMetadata(tt.meta))
		})
	}
}

func TestEntitlement_ApplyTo(t *testing.T) {
	t.Run("посторонние ключи сохраняются", func(t *testing.T) {
		ent := Entitlement{
			TrialExpireDate: int64Ptr(1768651200000),
			HasPremium:      true,
		}
		meta := map[string]any{"provider": "google", "role": "user"}

		merged := ent.ApplyTo(meta)

		assert.Equal(t, "google", merged["provider"])
		assert.Equal(t, "user", merged["role"])
		assert.Equal(t, int64(1768651200000), merged["trialExpireDate"])
		assert.Equal(t, true, merged["hasPremium"])
	})

	t.Run("исходный мешок не изменяется", func(t *testing.T) {
		ent := Entitlement{HasPremium: true}
		meta := map[string]any{"provider": "google"}

		_ = ent.ApplyTo(meta)

		require.Len(t, meta, 1)
	})

	t.Run("без пробного периода пишется явный null", func(t *testing.T) {
		merged := Entitlement{HasPremium: true}.ApplyTo(map[string]any{})

		v, ok := merged["trialExpireDate"]
		require.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("отметка сверки пишется только после установки", func(t *testing.T) {
		withoutCheck := Entitlement{}.ApplyTo(map[string]any{})
		_, ok := withoutCheck["lastSubscriptionCheck"]
		assert.False(t, ok)

		withCheck := Entitlement{LastSubscriptionCheck: int64Ptr(1768000000000)}.ApplyTo(map[string]any{})
		assert.Equal(t, int64(1768000000000), withCheck["lastSubscriptionCheck"])
	})
}

func TestEntitlement_IsEntitled(t *testing.T) {
	expire := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ent  Entitlement
		now  time.Time
		want bool
	}{
		{
			name: "премиум действует независимо от пробного периода",
			ent:  Entitlement{HasPremium: true},
			now:  expire.Add(365 * 24 * time.Hour),
			want: true,
		},
		{
			name: "пробный период ещё идет",
			ent:  Entitlement{TrialExpireDate: int64Ptr(expire.UnixMilli())},
			now:  expire.Add(-time.Hour),
			want: true,
		},
		{
			name: "момент окончания включителен",
			ent:  Entitlement{TrialExpireDate: int64Ptr(expire.UnixMilli())},
			now:  expire,
			want: true,
		},
		{
			name: "миллисекунда после окончания",
			ent:  Entitlement{TrialExpireDate: int64Ptr(expire.UnixMilli())},
			now:  expire.Add(time.Millisecond),
			want: false,
		},
		{
			name: "ни премиума, ни пробного периода",
			ent:  Entitlement{},
			now:  expire,
			want: false,
		},
		{
			name: "истекший пробный период с премиумом",
			ent: Entitlement{
				HasPremium:      true,
				TrialExpireDate: int64Ptr(expire.UnixMilli()),
			},
			now:  expire.Add(time.Hour),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ent.IsEntitled(tt.now))
		})
	}
}
