package core

// MonthLabels are the pt-BR short month names, January first.
var MonthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// YearSummary holds the revenue of one calendar year bucketed by month.
type YearSummary struct {
	Year   int
	Months [12]Money // index 0 = January
}

// Total is the sum of all months.
func (s YearSummary) Total() Money {
	var t Money
	for _, m := range s.Months {
		t = t.Add(m)
	}
	return t
}

// Max is the largest monthly value, zero for an empty year.
func (s YearSummary) Max() Money {
	var max Money
	for _, m := range s.Months {
		if m.Cents > max.Cents {
			max = m
		}
	}
	return max
}
