package service

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/client"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/money"
	"marketplace-backend/internal/repository"
)

const maxDiscountPercent = 70

type CatalogService interface {
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	RenameCategory(ctx context.Context, id, name string) error
	DeactivateCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, vendorID string, req *dto.ProductRequest, image io.Reader, imageName string) (*model.Product, error)
	UpdateProduct(ctx context.Context, vendorID, productID string, req *dto.ProductRequest) (*model.Product, error)
	ListVendorProducts(ctx context.Context, vendorID string) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

type catalogServiceImpl struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	images     client.ImageStore
	logger     *zap.Logger
}

func NewCatalogService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	images client.ImageStore,
	logger *zap.Logger,
) CatalogService {
	return &catalogServiceImpl{
		categories: categories,
		products:   products,
		images:     images,
		logger:     logger,
	}
}

func (s *catalogServiceImpl) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.KindValidation, "category name is required")
	}
	category := &model.Category{Name: name, IsActive: true}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categories.ListActive(ctx)
}

func (s *catalogServiceImpl) RenameCategory(ctx context.Context, id, name string) error {
	if name == "" {
		return apperrors.New(apperrors.KindValidation, "category name is required")
	}
	if err := s.categories.Rename(ctx, id, name); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.New(apperrors.KindConflict, "category does not exist")
		}
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

func (s *catalogServiceImpl) DeactivateCategory(ctx context.Context, id string) error {
	if err := s.categories.Deactivate(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.New(apperrors.KindConflict, "category does not exist")
		}
		return fmt.Errorf("deactivate category: %w", err)
	}
	return nil
}

// priceFields validates the request's pricing and returns the parsed price
// with the precomputed discounted unit price.
func priceFields(req *dto.ProductRequest) (decimal.Decimal, decimal.Decimal, error) {
	price, err := decimal.NewFromString(req.OriginalPrice)
	if err != nil || price.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, apperrors.New(apperrors.KindValidation, "original price must be a positive amount")
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > maxDiscountPercent {
		return decimal.Zero, decimal.Zero, apperrors.New(apperrors.KindValidation,
			fmt.Sprintf("discount percent must be between 0 and %d", maxDiscountPercent))
	}

	discounted := decimal.Zero
	if req.DiscountPercent > 0 {
		discounted = money.CustomerPayout(price, req.DiscountPercent)
	}
	return price.Round(2), discounted, nil
}

func (s *catalogServiceImpl) CreateProduct(ctx context.Context, vendorID string, req *dto.ProductRequest, image io.Reader, imageName string) (*model.Product, error) {
	if req.Name == "" {
		return nil, apperrors.New(apperrors.KindValidation, "product name is required")
	}
	if req.Stock < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "stock cannot be negative")
	}
	price, discounted, err := priceFields(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.categories.FindActive(ctx, req.CategoryID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindConflict, "category does not exist")
		}
		return nil, fmt.Errorf("load category: %w", err)
	}

	product := &model.Product{
		CategoryID:      req.CategoryID,
		VendorID:        vendorID,
		Name:            req.Name,
		Description:     req.Description,
		Stock:           req.Stock,
		OriginalPrice:   price,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  discounted,
	}

	// image upload is best effort; a product without an image still sells
	if image != nil && s.images != nil {
		uploaded, err := s.images.Upload(ctx, image, imageName)
		if err != nil {
			s.logger.Warn("product image upload failed",
				zap.String("vendor_id", vendorID), zap.Error(err))
		} else {
			product.ImagePublicID = uploaded.PublicID
			product.ImageURL = uploaded.SecureURL
		}
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created",
		zap.String("product_id", product.ID), zap.String("vendor_id", vendorID))
	return product, nil
}

func (s *catalogServiceImpl) UpdateProduct(ctx context.Context, vendorID, productID string, req *dto.ProductRequest) (*model.Product, error) {
	product, err := s.products.FindPurchasable(ctx, nil, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product.VendorID != vendorID {
		return nil, apperrors.New(apperrors.KindAuth, "product belongs to another vendor")
	}
	if req.Stock < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "stock cannot be negative")
	}
	price, discounted, err := priceFields(req)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != "" && req.CategoryID != product.CategoryID {
		if _, err := s.categories.FindActive(ctx, req.CategoryID); err != nil {
			if repository.IsNotFound(err) {
				return nil, apperrors.New(apperrors.KindConflict, "category does not exist")
			}
			return nil, fmt.Errorf("load category: %w", err)
		}
		product.CategoryID = req.CategoryID
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	product.Description = req.Description
	product.Stock = req.Stock
	product.OriginalPrice = price
	product.DiscountPercent = req.DiscountPercent
	product.DiscountAmount = discounted

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return product, nil
}

func (s *catalogServiceImpl) ListVendorProducts(ctx context.Context, vendorID string) ([]*model.Product, error) {
	return s.products.ListByVendor(ctx, vendorID)
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.products.FindPurchasable(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}
