// AngelaMos | 2026
// dto.go

package catalog

type ProductResponse struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unit_cost"`
}

func ToProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		Code:        p.Code,
		Description: p.Description,
		UnitCost:    p.UnitCost,
	}
}
