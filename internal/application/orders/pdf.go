package orders

import (
	"context"
	"fmt"

	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// PDFGenerator puerto de salida para la exportación del pedido. Solo presentación, sin estado.
type PDFGenerator interface {
	GenerateOrderPDF(ctx context.Context, o *entity.Order, items []*entity.OrderItem, customer *entity.User) ([]byte, error)
}

// ExportPDF genera el PDF del pedido con la misma visibilidad que Get.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el pedido no existe.
//   - domain.ErrForbidden        si el principal no puede ver el pedido.
func (uc *UseCase) ExportPDF(ctx context.Context, p access.Principal, id string) ([]byte, string, error) {
	o, err := uc.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := access.Check(p, access.OrderView, resourceOf(o)); err != nil {
		return nil, "", err
	}
	items, err := uc.repos.Orders.GetItems(ctx, o.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}
	customer, err := uc.repos.Users.GetByID(ctx, o.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
	}
	if customer == nil {
		customer = &entity.User{ID: o.CustomerID}
	}
	doc, err := uc.pdf.GenerateOrderPDF(ctx, o, items, customer)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return doc, fmt.Sprintf("pedido_%s.pdf", o.OrderNumber), nil
}
