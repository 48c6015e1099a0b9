package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"agritech/internal/domain/model"
	"agritech/internal/middleware"
	"agritech/internal/usecase"
	"agritech/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// image plus form fields
const maxMultipartBody = usecase.MaxImageBytes + 1<<20

type ProductHandler struct {
	uc        *usecase.ProductUsecase
	validator *validator.Validator
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, v *validator.Validator) *ProductHandler {
	return &ProductHandler{uc: uc, validator: v}
}

func (h *ProductHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	products := g.Group("/product")
	sellers := middleware.RequireRoles(model.RoleSeller, model.RoleAdmin)

	products.POST("/add", h.create, guards.authed(sellers)...)
	products.GET("/getAll", h.list)
	products.GET("/getById/:id", h.detail)
	products.GET("/filterProduct", h.filter)
	products.GET("/getBySellerId", h.listBySeller, guards.authed(sellers)...)
	products.DELETE("/delete/:id", h.delete, guards.authed(sellers)...)
}

// POST /product/add (multipart, optional "image" file)
func (h *ProductHandler) create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxMultipartBody)
	if err := req.ParseMultipartForm(maxMultipartBody); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return usecase.NewHTTPError(http.StatusRequestEntityTooLarge, "image must be 5MB or smaller")
		}
		return usecase.NewValidationError("request must be multipart/form-data")
	}

	doc := map[string]interface{}{
		"name":        c.FormValue("name"),
		"description": c.FormValue("description"),
		"price":       numberOrRaw(c.FormValue("price"), false),
		"category":    c.FormValue("category"),
		"stock":       numberOrRaw(c.FormValue("stock"), true),
		"location":    c.FormValue("location"),
	}
	for k, v := range doc {
		if s, ok := v.(string); ok && s == "" {
			delete(doc, k)
		}
	}
	if err := h.validator.ValidateValue(validator.SchemaProductCreate, doc); err != nil {
		return err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("price")))
	if err != nil {
		return usecase.NewValidationError("price must be a number")
	}
	stock, _ := strconv.ParseInt(strings.TrimSpace(c.FormValue("stock")), 10, 64)

	in := usecase.CreateProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		Category:    c.FormValue("category"),
		Stock:       stock,
		Location:    c.FormValue("location"),
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		img, err := readImage(fh)
		if err != nil {
			return err
		}
		in.Image = &img
	case errors.Is(err, http.ErrMissingFile):
	default:
		return usecase.NewValidationError("invalid image upload")
	}

	p, err := h.uc.Create(req.Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Product added successfully",
		"product": p,
	})
}

// GET /product/getAll
func (h *ProductHandler) list(c echo.Context) error {
	products, err := h.uc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

// GET /product/getById/:id
func (h *ProductHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"product": p,
	})
}

// GET /product/filterProduct?name=&price=&category=
func (h *ProductHandler) filter(c echo.Context) error {
	products, err := h.uc.Filter(c.Request().Context(), usecase.ProductFilterInput{
		Name:     c.QueryParam("name"),
		Price:    c.QueryParam("price"),
		Category: c.QueryParam("category"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "product is filtered successfully",
		"count":    len(products),
		"products": products,
	})
}

// GET /product/getBySellerId
func (h *ProductHandler) listBySeller(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	products, err := h.uc.ListBySeller(c.Request().Context(), a.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

// DELETE /product/delete/:id
func (h *ProductHandler) delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully deleted Product",
	})
}

func readImage(fh *multipart.FileHeader) (usecase.ImageFile, error) {
	if fh.Size > usecase.MaxImageBytes {
		return usecase.ImageFile{}, usecase.NewHTTPError(http.StatusRequestEntityTooLarge, "image must be 5MB or smaller")
	}
	f, err := fh.Open()
	if err != nil {
		return usecase.ImageFile{}, usecase.NewValidationError("invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, usecase.MaxImageBytes+1))
	if err != nil {
		return usecase.ImageFile{}, usecase.NewInternal(err)
	}
	return usecase.ImageFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

// numberOrRaw lets the schema report a type error for non-numeric form values.
func numberOrRaw(s string, integer bool) interface{} {
	s = strings.TrimSpace(s)
	if integer {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
