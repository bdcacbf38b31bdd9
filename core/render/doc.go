// Package render provides the render(name, data) collaborator used by
// handlers to produce HTML.
//
// Templates wraps html/template files and Components wraps templ components;
// both implement Renderer and can be combined with Chain. HTML writes the
// result into a handler.Response:
//
//	views := render.Chain(components, templates)
//	app.Get("/users/<id:int>", func(req *handler.Request, res *handler.Response) error {
//		return render.HTML(req, res, views, http.StatusOK, "user.html", user)
//	})
package render
