package handler

import (
	"net/http"
	"strconv"

	"storefront-service/internal/audit"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/role"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	SKU         string           `json:"sku"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Stock       int              `json:"stock"`
	Category    string           `json:"category"`
}

func (r *ProductRequest) validate() (string, bool) {
	if r.Name == "" {
		return "name is required", false
	}
	if r.SKU == "" {
		return "sku is required", false
	}
	if r.Price.LessThanOrEqual(decimal.Zero) {
		return "price must be greater than zero", false
	}
	if r.SalePrice != nil && r.SalePrice.LessThanOrEqual(decimal.Zero) {
		return "sale_price must be greater than zero", false
	}
	if r.Stock < 0 {
		return "stock must not be negative", false
	}
	return "", true
}

// ListProducts handles retrieving all products with optional filtering.
// Hidden and blocked products are only visible to store admins.
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing products with filters")

	db := database.GetDB()
	var products []model.Product

	query := db

	// Only store admins see hidden or blocked products
	caller, _ := middleware.UserFromContext(c)
	if caller == nil || !role.IsStoreAdmin(caller.Role) {
		query = query.Where("hidden = ? AND blocked = ?", false, false)
	}

	// Filter by category if specified
	category := c.QueryParam("category")
	if category != "" {
		query = query.Where("category = ?", category)
		log.Info("Filtering products by category", zap.String("category", category))
	}

	// Execute the query
	result := query.Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products",
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting product by ID", zap.String("product_id", id))

	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	// Hidden and blocked products are invisible to non-admin callers
	caller, _ := middleware.UserFromContext(c)
	if !product.Purchasable() && (caller == nil || !role.IsStoreAdmin(caller.Role)) {
		log.Warn("Non-admin requested unavailable product", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	log.Info("Product retrieved successfully",
		zap.String("product_id", id),
		zap.String("product_name", product.Name),
		zap.String("product_sku", product.SKU))
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new product")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Product validation failed", zap.String("detail", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	log.Info("Product creation request",
		zap.String("name", req.Name),
		zap.String("sku", req.SKU),
		zap.String("price", req.Price.String()))

	// Check if product with SKU already exists
	var count int64
	database.GetDB().Model(&model.Product{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Product with this SKU already exists",
		})
	}

	// Create the product
	product := model.Product{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		Category:    req.Category,
	}

	result := database.GetDB().Create(&product)
	if result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.String("sku", req.SKU),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	audit.Record(c, audit.Entry{
		Action:     "product.create",
		Category:   model.LogCategoryProduct,
		TargetType: "product",
		TargetID:   strconv.FormatUint(uint64(product.ID), 10),
		After:      product,
	})

	log.Info("Product created successfully",
		zap.String("product_id", strconv.FormatUint(uint64(product.ID), 10)),
		zap.String("name", product.Name),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating product", zap.String("product_id", id))

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Product validation failed", zap.String("detail", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	// Find existing product
	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Error("Product not found for update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	before := product
	oldSKU := product.SKU

	// Check if SKU is changed and if new SKU already exists
	if req.SKU != product.SKU {
		log.Info("Product SKU change requested",
			zap.String("product_id", id),
			zap.String("old_sku", oldSKU),
			zap.String("new_sku", req.SKU))

		var count int64
		database.GetDB().Model(&model.Product{}).Where("sku = ? AND id != ?", req.SKU, id).Count(&count)
		if count > 0 {
			log.Warn("Product with this SKU already exists",
				zap.String("sku", req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Product with this SKU already exists",
			})
		}
	}

	// Update fields
	product.Name = req.Name
	product.Description = req.Description
	product.SKU = req.SKU
	product.Price = req.Price
	product.SalePrice = req.SalePrice
	product.Stock = req.Stock
	product.Category = req.Category

	result = database.GetDB().Save(&product)
	if result.Error != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	audit.Record(c, audit.Entry{
		Action:     "product.update",
		Category:   model.LogCategoryProduct,
		TargetType: "product",
		TargetID:   id,
		Before:     before,
		After:      product,
	})

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name),
		zap.String("old_sku", oldSKU),
		zap.String("new_sku", product.SKU))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product (soft delete)
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deleting product", zap.String("product_id", id))

	// Get product details before deleting
	var product model.Product
	preResult := database.GetDB().First(&product, id)
	if preResult.Error == nil {
		log.Info("Found product to delete",
			zap.String("product_id", id),
			zap.String("name", product.Name),
			zap.String("sku", product.SKU))
	}

	result := database.GetDB().Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete product",
		})
	}

	if result.RowsAffected == 0 {
		log.Warn("Product not found for deletion",
			zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	audit.Record(c, audit.Entry{
		Action:     "product.delete",
		Category:   model.LogCategoryProduct,
		Severity:   model.LogSeverityWarning,
		TargetType: "product",
		TargetID:   id,
		Before:     product,
	})

	log.Info("Product deleted successfully",
		zap.String("product_id", id),
		zap.Int64("rows_affected", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted successfully",
	})
}

// UpdateStock sets or adjusts a product's stock level
func UpdateStock(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating product stock", zap.String("product_id", id))

	var req struct {
		Stock *int `json:"stock,omitempty"` // absolute value
		Delta *int `json:"delta,omitempty"` // signed adjustment
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Stock == nil && req.Delta == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock or delta is required"})
	}

	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Error("Product not found for stock update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	before := product
	newStock := product.Stock
	if req.Stock != nil {
		newStock = *req.Stock
	} else {
		newStock += *req.Delta
	}

	if newStock < 0 {
		log.Warn("Stock update would go negative",
			zap.String("product_id", id),
			zap.Int("requested", newStock))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock must not be negative"})
	}

	if err := database.GetDB().Model(&product).Update("stock", newStock).Error; err != nil {
		log.Error("Failed to update stock", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update stock"})
	}
	product.Stock = newStock

	audit.Record(c, audit.Entry{
		Action:     "product.update_stock",
		Category:   model.LogCategoryProduct,
		TargetType: "product",
		TargetID:   id,
		Before:     echo.Map{"stock": before.Stock},
		After:      echo.Map{"stock": newStock},
	})

	log.Info("Stock updated",
		zap.String("product_id", id),
		zap.Int("old_stock", before.Stock),
		zap.Int("new_stock", newStock))
	return c.JSON(http.StatusOK, product)
}

// HideProduct toggles a product's hidden flag (owner only)
func HideProduct(c echo.Context) error {
	return setProductFlag(c, "hidden", "product.hide")
}

// BlockProduct toggles a product's blocked flag (owner only)
func BlockProduct(c echo.Context) error {
	return setProductFlag(c, "blocked", "product.block")
}

func setProductFlag(c echo.Context, column, action string) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req struct {
		Value bool `json:"value"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	before := product
	if err := database.GetDB().Model(&product).Update(column, req.Value).Error; err != nil {
		log.Error("Failed to update product flag",
			zap.String("product_id", id),
			zap.String("flag", column),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	audit.Record(c, audit.Entry{
		Action:     action,
		Category:   model.LogCategoryProduct,
		Severity:   model.LogSeverityWarning,
		TargetType: "product",
		TargetID:   id,
		Before:     echo.Map{column: columnValue(before, column)},
		After:      echo.Map{column: req.Value},
	})

	log.Info("Product flag updated",
		zap.String("product_id", id),
		zap.String("flag", column),
		zap.Bool("value", req.Value))

	// Re-read so the response reflects the new flag
	database.GetDB().First(&product, id)
	return c.JSON(http.StatusOK, product)
}

func columnValue(p model.Product, column string) bool {
	if column == "hidden" {
		return p.Hidden
	}
	return p.Blocked
}
