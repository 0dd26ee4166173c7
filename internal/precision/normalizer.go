package precision

import (
	"context"
	"fmt"
	"math"

	"hyper_bot/internal/models"
)

// ErrSymbolNotFound — монеты нет в universe. Это ошибка конфигурации,
// ретраить бессмысленно.
var ErrSymbolNotFound = fmt.Errorf("symbol not found in meta universe")

// Direction — направление квантования цены.
type Direction int

const (
	Down Direction = iota
	Up
)

// minPriceStep — биржа принимает не больше 6 знаков после запятой.
const minPriceStep = 1e-6

// epsilon против float-мусора при делении на шаг (как в округлении до тика).
const eps = 1e-9

// MetaSource отдаёт снапшот universe перпов. Дёргается максимум один раз
// на промах кэша по символу.
type MetaSource interface {
	AssetMetas(ctx context.Context) ([]models.AssetMeta, error)
}

// Normalizer приводит размер и цену к виду, который примет биржа:
// размер — кратно лоту 10^-szDecimals, цена — ~5 значащих цифр.
// Кэш szDecimals живёт всё время процесса и не инвалидируется.
// Не потокобезопасен: один инстанс на один торговый цикл.
type Normalizer struct {
	src   MetaSource
	cache map[string]int
}

func NewNormalizer(src MetaSource) *Normalizer {
	return &Normalizer{
		src:   src,
		cache: make(map[string]int),
	}
}

// SizeDecimals — szDecimals по монете, лениво из меты.
func (n *Normalizer) SizeDecimals(ctx context.Context, coin string) (int, error) {
	if d, ok := n.cache[coin]; ok {
		return d, nil
	}

	metas, err := n.src.AssetMetas(ctx)
	if err != nil {
		return 0, fmt.Errorf("load meta: %w", err)
	}

	for _, m := range metas {
		if m.Name == coin {
			n.cache[coin] = m.SzDecimals
			return m.SzDecimals, nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, coin)
}

// QuantizeSize режет размер вниз до кратного лоту. Никогда не отдаёт ноль
// для ненулевого запроса: если после усечения вышло <= 0 — поднимаем ровно
// до одного лота. Лучше минимальный ордер, чем молчаливый no-op.
func (n *Normalizer) QuantizeSize(ctx context.Context, coin string, raw float64) (float64, error) {
	d, err := n.SizeDecimals(ctx, coin)
	if err != nil {
		return 0, err
	}

	// работаем в целых лотах, чтобы не ловить 0.30000000000000004
	pow := math.Pow(10, float64(d))
	lots := math.Floor(raw*pow + eps)
	if lots <= 0 {
		lots = 1
	}
	return lots / pow, nil
}

// PriceStep — шаг цены от её собственного порядка: 10^(floor(log10(px))-4),
// т.е. ~5 значащих цифр, но не мельче 1e-6.
// px <= 0 — отдаём минимальный шаг, а не ошибку: защита от нулевой/протухшей
// котировки, поведение зафиксировано как политика.
func PriceStep(px float64) float64 {
	if px <= 0 {
		return minPriceStep
	}

	exp := int(math.Floor(math.Log10(px)))
	step := math.Pow(10, float64(exp-4))
	if step < minPriceStep {
		step = minPriceStep
	}
	return step
}

// QuantizePrice — цена на сетку шага в заданную сторону. Значение ровно на
// границе шага не двигается ни вниз, ни вверх.
func QuantizePrice(px float64, dir Direction) float64 {
	step := PriceStep(px)

	var steps float64
	if dir == Up {
		steps = math.Ceil(px/step - eps)
	} else {
		steps = math.Floor(px/step + eps)
	}

	v := steps * step

	// шаг — степень десятки, поэтому можно дочистить float-мусор
	// округлением до знаков шага
	if dec := stepDecimals(step); dec > 0 {
		pow := math.Pow(10, float64(dec))
		v = math.Round(v*pow) / pow
	}
	return v
}

// stepDecimals — сколько знаков после запятой у шага 10^-k (0 для шагов >= 1).
func stepDecimals(step float64) int {
	if step >= 1 {
		return 0
	}
	return int(math.Round(-math.Log10(step)))
}
