package normalize

import (
	"math"

	"trojmiasto-monitor/internal/core/domain"
)

// ReconcilePrice достраивает отсутствующую цену или цену за метр из двух
// других полей, когда это возможно. Отсутствие сохраняется, если вывести
// значение нельзя; деление защищено от нулевой и отрицательной площади.
func ReconcilePrice(l *domain.Listing) {
	switch {
	case l.Price == nil && l.PricePerSqrMeter != nil && l.SquareMeters != nil:
		price := round2(*l.PricePerSqrMeter * *l.SquareMeters)
		l.Price = &price
	case l.PricePerSqrMeter == nil && l.Price != nil && l.SquareMeters != nil && *l.SquareMeters > 0:
		perMeter := round2(*l.Price / *l.SquareMeters)
		l.PricePerSqrMeter = &perMeter
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
