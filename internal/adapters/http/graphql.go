package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/offload"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FactMarker",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"category":    &graphql.Field{Type: graphql.String},
			"verified":    &graphql.Field{Type: graphql.Boolean},
			"vote_score":  &graphql.Field{Type: graphql.Int},
			"author_name": &graphql.Field{Type: graphql.String},
		},
	})

	factType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Fact",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"title":           &graphql.Field{Type: graphql.String},
			"content":         &graphql.Field{Type: graphql.String},
			"latitude":        &graphql.Field{Type: graphql.Float},
			"longitude":       &graphql.Field{Type: graphql.Float},
			"category_id":     &graphql.Field{Type: graphql.String},
			"author_name":     &graphql.Field{Type: graphql.String},
			"status":          &graphql.Field{Type: graphql.String},
			"vote_count_up":   &graphql.Field{Type: graphql.Int},
			"vote_count_down": &graphql.Field{Type: graphql.Int},
		},
	})

	clusterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MarkerCluster",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"count":   &graphql.Field{Type: graphql.Int},
			"zoom":    &graphql.Field{Type: graphql.Int},
			"center":  &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"markers": &graphql.Field{Type: graphql.NewList(markerType)},
		},
	})

	categoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.String},
			"slug": &graphql.Field{Type: graphql.String},
			"name": &graphql.Field{Type: graphql.String},
			"icon": &graphql.Field{Type: graphql.String},
		},
	})

	viewportArgs := graphql.FieldConfigArgument{
		"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"zoom":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
	}

	boundsFromArgs := func(args map[string]interface{}) domain.Bounds {
		return domain.Bounds{
			North: args["north"].(float64),
			South: args["south"].(float64),
			East:  args["east"].(float64),
			West:  args["west"].(float64),
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"factsInViewport": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Fact markers visible in a viewport",
				Args:        viewportArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bounds := boundsFromArgs(p.Args)
					zoom := p.Args["zoom"].(int)
					return deps.Viewports.FactsInViewport(p.Context, bounds, zoom), nil
				},
			},
			"clusters": &graphql.Field{
				Type:        graphql.NewList(clusterType),
				Description: "Clustered markers for a viewport",
				Args:        viewportArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bounds := boundsFromArgs(p.Args)
					zoom := p.Args["zoom"].(int)
					markers := deps.Viewports.FactsInViewport(p.Context, bounds, zoom)
					return deps.Offload.Cluster(p.Context, markers, zoom, &bounds, offload.AlgoGrid, 0)
				},
			},
			"fact": &graphql.Field{
				Type:        factType,
				Description: "Get a fact by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Facts.GetByID(p.Context, id)
				},
			},
			"trending": &graphql.Field{
				Type:        graphql.NewList(factType),
				Description: "Highest-scored facts",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return deps.Facts.Trending(p.Context, limit)
				},
			},
			"categories": &graphql.Field{
				Type:        graphql.NewList(categoryType),
				Description: "List all fact categories",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Categories.List(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
