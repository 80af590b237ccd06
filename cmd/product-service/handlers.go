package main

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	"github.com/MikeMC777/printshop-orders/internal/product"
)

const minSearchLen = 2

// @Summary List products
// @Description Active products, newest first. Pagination only; use /products/search to filter by text.
// @Tags    products
// @Produce json
// @Param   category query string false "category name"
// @Param   limit    query int    false "page size"
// @Param   offset   query int    false "offset"
// @Success 200 {object} product.ListResponse
// @Router  /products [get]
func listOnlyHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		category := strings.TrimSpace(c.Query("category"))
		items, err := repo.List(c.Request.Context(), product.Query{
			Category:   category,
			Limit:      limit,
			Offset:     offset,
			ActiveOnly: true,
		})
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Category: category, Limit: limit, Offset: offset, Items: items})
	}
}

// @Summary Search products
// @Tags    products
// @Produce json
// @Param   q        query string true  "text in name or description, at least 2 characters"
// @Param   category query string false "category name"
// @Param   limit    query int    false "page size"
// @Param   offset   query int    false "offset"
// @Success 200 {object} product.ListResponse
// @Failure 400 {object} httpx.ErrorBody
// @Router  /products/search [get]
func searchHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if utf8.RuneCountInString(q) < minSearchLen {
			httpx.BadRequest(c, fmt.Sprintf("q must have at least %d characters", minSearchLen))
			return
		}
		limit, offset := httpx.Page(c)
		category := strings.TrimSpace(c.Query("category"))
		items, err := repo.List(c.Request.Context(), product.Query{
			Q:          q,
			Category:   category,
			Limit:      limit,
			Offset:     offset,
			ActiveOnly: true,
		})
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q, Category: category, Limit: limit, Offset: offset, Items: items})
	}
}

// @Summary Get product
// @Tags    products
// @Produce json
// @Param   id path string true "product id"
// @Success 200 {object} product.Product
// @Failure 404 {object} httpx.ErrorBody
// @Router  /products/{id} [get]
func getProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary Create product
// @Tags    products
// @Accept  json
// @Produce json
// @Param   X-API-Key header string                       true "staff key"
// @Param   body      body   product.CreateProductRequest true "product"
// @Success 201 {object} product.Product
// @Failure 400 {object} httpx.ErrorBody
// @Router  /products [post]
func createProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !httpx.Actor(c).IsAdmin() {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}
		p, err := req.Product()
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary     Update product
// @Description Partial update; omitted fields keep their value
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string                       true "staff key"
// @Param       id        path   string                       true "product id"
// @Param       body      body   product.UpdateProductRequest true "fields to change"
// @Success     200 {object} product.Product
// @Failure     400 {object} httpx.ErrorBody
// @Failure     404 {object} httpx.ErrorBody
// @Router      /products/{id} [put]
func updateProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !httpx.Actor(c).IsAdmin() {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid body: "+err.Error())
			return
		}
		patch, err := req.Patch()
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		p, err := repo.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary     Delete product
// @Description Marks the product deleted; existing orders keep their lines
// @Tags        products
// @Param       X-API-Key header string true "staff key"
// @Param       id        path   string true "product id"
// @Success     204
// @Failure     404 {object} httpx.ErrorBody
// @Router      /products/{id} [delete]
func deleteProductHandler(repo product.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !httpx.Actor(c).IsAdmin() {
			httpx.WriteError(c, log, apperr.ErrForbidden)
			return
		}
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, log, err)
			return
		}
		if !ok {
			httpx.WriteError(c, log, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, c.Param("id")))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func newRouter(repo product.Repository, authn *httpx.Authenticator, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/products", listOnlyHandler(repo, log))
	r.GET("/products/search", searchHandler(repo, log))
	r.GET("/products/:id", getProductHandler(repo, log))

	staff := r.Group("/products", authn.Required())
	{
		staff.POST("", createProductHandler(repo, log))
		staff.PUT("/:id", updateProductHandler(repo, log))
		staff.DELETE("/:id", deleteProductHandler(repo, log))
	}
	return r
}
