package server

import (
	"bytes"
	"encoding/json"
	"net/url"
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/git-pkgs/altsource/internal/core"
	"github.com/git-pkgs/altsource/links"
)

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Get("/health", s.health)

	api.Get("/source", s.getSource)
	api.Put("/source", s.putSource)
	api.Patch("/source", s.patchSource)
	api.Post("/source/reset", s.resetSource)
	api.Get("/source/validate", s.validateSource)
	api.Get("/source/export", s.exportSource)
	api.Get("/source/inventory", s.inventory)
	api.Get("/source/links", s.sourceLinks)

	api.Post("/apps", s.addApp)
	api.Put("/apps/:index", s.putApp)
	api.Patch("/apps/:index", s.patchApp)
	api.Delete("/apps/:index", s.deleteApp)
	api.Post("/apps/:index/duplicate", s.duplicateApp)
	api.Post("/apps/:index/move", s.moveApp)

	api.Post("/news", s.addNews)
	api.Put("/news/:index", s.putNews)
	api.Patch("/news/:index", s.patchNews)
	api.Delete("/news/:index", s.deleteNews)
	api.Post("/news/:index/duplicate", s.duplicateNews)
	api.Post("/news/:index/move", s.moveNews)

	api.Put("/featured/:bundleID", s.setFeatured(true))
	api.Delete("/featured/:bundleID", s.setFeatured(false))
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// sendDocument writes the working document, empty fields included.
func sendDocument(c *fiber.Ctx, src core.Source) error {
	data, err := core.Encode(src)
	if err != nil {
		return err
	}
	c.Type("json")
	return c.Send(data)
}

// objectBody returns the request body if it is a JSON object.
func objectBody(c *fiber.Ctx) ([]byte, error) {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return body, nil
}

func indexParam(c *fiber.Ctx, name string) (int, error) {
	i, err := c.ParamsInt(name)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}
	return i, nil
}

// patch applies each member of a JSON object body to entity with SetField,
// in key order.
func patch[T any](c *fiber.Ctx, entity T) (T, error) {
	body, err := objectBody(c)
	if err != nil {
		return entity, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return entity, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if entity, err = core.SetField(entity, k, fields[k]); err != nil {
			return entity, err
		}
	}
	return entity, nil
}

func (s *Server) getSource(c *fiber.Ctx) error {
	return sendDocument(c, s.Source())
}

func (s *Server) putSource(c *fiber.Ctx) error {
	imported, err := core.Import(c.Body())
	if err != nil {
		return err
	}
	src, err := s.update(c.UserContext(), func(core.Source) (core.Source, error) {
		return imported, nil
	})
	if err != nil {
		return err
	}
	return sendDocument(c, src)
}

func (s *Server) patchSource(c *fiber.Ctx) error {
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return patch(c, cur)
	})
	if err != nil {
		return err
	}
	return sendDocument(c, src)
}

func (s *Server) resetSource(c *fiber.Ctx) error {
	src, err := s.update(c.UserContext(), func(core.Source) (core.Source, error) {
		return core.NewSource(), nil
	})
	if err != nil {
		return err
	}
	return sendDocument(c, src)
}

func (s *Server) validateSource(c *fiber.Ctx) error {
	problems := core.Validate(s.Source())
	return c.JSON(fiber.Map{
		"valid":    problems.Valid(),
		"problems": problems,
	})
}

func (s *Server) exportSource(c *fiber.Ctx) error {
	src := s.Source()
	export := core.Export
	if c.QueryBool("compact") {
		export = core.ExportCompact
	}
	data, err := export(src)
	if err != nil {
		return err
	}
	c.Attachment(core.Filename(src))
	return c.Send(data)
}

func (s *Server) inventory(c *fiber.Ctx) error {
	purls := core.Inventory(s.Source())
	if purls == nil {
		purls = []string{}
	}
	return c.JSON(fiber.Map{"purls": purls})
}

func (s *Server) sourceLinks(c *fiber.Ctx) error {
	sourceURL := c.Query("url")
	if sourceURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url query parameter is required")
	}
	return c.JSON(links.BuildLinks(sourceURL))
}

func (s *Server) addApp(c *fiber.Ctx) error {
	var index int
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		next, i := core.AddApp(cur)
		index = i
		return next, nil
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"index": index, "app": src.Apps[index]})
}

func (s *Server) putApp(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	body, err := objectBody(c)
	if err != nil {
		return err
	}
	var app core.App
	if err := json.Unmarshal(body, &app); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.UpdateApp(cur, index, app)
	})
	if err != nil {
		return err
	}
	return c.JSON(src.Apps[index])
}

func (s *Server) patchApp(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		if index < 0 || index >= len(cur.Apps) {
			return core.UpdateApp(cur, index, core.App{})
		}
		app, err := patch(c, cur.Apps[index])
		if err != nil {
			return cur, err
		}
		return core.UpdateApp(cur, index, app)
	})
	if err != nil {
		return err
	}
	return c.JSON(src.Apps[index])
}

func (s *Server) deleteApp(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	if _, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.DeleteApp(cur, index)
	}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) duplicateApp(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.DuplicateApp(cur, index)
	})
	if err != nil {
		return err
	}
	last := len(src.Apps) - 1
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"index": last, "app": src.Apps[last]})
}

func (s *Server) moveApp(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	to := c.QueryInt("to", -1)
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.MoveApp(cur, index, to)
	})
	if err != nil {
		return err
	}
	return sendDocument(c, src)
}

func (s *Server) addNews(c *fiber.Ctx) error {
	item := core.NewNewsItem(s.now())
	if len(bytes.TrimSpace(c.Body())) > 0 {
		body, err := objectBody(c)
		if err != nil {
			return err
		}
		item = core.NewsItem{}
		if err := json.Unmarshal(body, &item); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	var index int
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		next, i := core.AddNewsItem(cur, item)
		index = i
		return next, nil
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"index": index, "news": src.News[index]})
}

func (s *Server) putNews(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	body, err := objectBody(c)
	if err != nil {
		return err
	}
	var item core.NewsItem
	if err := json.Unmarshal(body, &item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.UpdateNews(cur, index, item)
	})
	if err != nil {
		return err
	}
	return c.JSON(src.News[index])
}

func (s *Server) patchNews(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		if index < 0 || index >= len(cur.News) {
			return core.UpdateNews(cur, index, core.NewsItem{})
		}
		item, err := patch(c, cur.News[index])
		if err != nil {
			return cur, err
		}
		return core.UpdateNews(cur, index, item)
	})
	if err != nil {
		return err
	}
	return c.JSON(src.News[index])
}

func (s *Server) deleteNews(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	if _, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.DeleteNews(cur, index)
	}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) duplicateNews(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.DuplicateNews(cur, index)
	})
	if err != nil {
		return err
	}
	last := len(src.News) - 1
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"index": last, "news": src.News[last]})
}

func (s *Server) moveNews(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	to := c.QueryInt("to", -1)
	src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
		return core.MoveNews(cur, index, to)
	})
	if err != nil {
		return err
	}
	return sendDocument(c, src)
}

func (s *Server) setFeatured(featured bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bundleID, err := url.PathUnescape(c.Params("bundleID"))
		if err != nil || bundleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "invalid bundle identifier")
		}
		src, err := s.update(c.UserContext(), func(cur core.Source) (core.Source, error) {
			return core.SetFeatured(cur, bundleID, featured), nil
		})
		if err != nil {
			return err
		}
		featuredApps := src.FeaturedApps
		if featuredApps == nil {
			featuredApps = []string{}
		}
		return c.JSON(fiber.Map{"featuredApps": featuredApps})
	}
}
