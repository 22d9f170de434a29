// Package graphql exposes the patch store over a GraphQL schema for
// frontends that prefer one round-trip queries over the REST surface.
package graphql

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-patchbay/pkg/algorithms"
	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/graphql-go/graphql"
)

// GenerateSchema builds the query and mutation schema over a patch
// store and auditor.
func GenerateSchema(store *patch.Store, auditor *checks.Auditor) (graphql.Schema, error) {
	portType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Port",
		Fields: graphql.Fields{
			"id":        stringField(func(p patch.Port) any { return p.ID }),
			"name":      stringField(func(p patch.Port) any { return p.Name }),
			"direction": stringField(func(p patch.Port) any { return string(p.Direction) }),
			"signal":    stringField(func(p patch.Port) any { return string(p.Signal) }),
			"label":     stringField(func(p patch.Port) any { return signal.Label(p.Signal) }),
			"connector": stringField(func(p patch.Port) any { return string(p.Connector) }),
		},
	})

	deviceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Device",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(*patch.Device).ID, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(*patch.Device).Name, nil
				},
			},
			"kind": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(*patch.Device).Kind, nil
				},
			},
			"x": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(*patch.Device).X, nil
				},
			},
			"y": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(*patch.Device).Y, nil
				},
			},
			"ports": &graphql.Field{
				Type: graphql.NewList(portType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(*patch.Device).Ports, nil
				},
			},
		},
	})

	cableType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Cable",
		Fields: graphql.Fields{
			"id":             cableString(func(c patch.Cable) any { return c.ID }),
			"sourceDeviceId": cableString(func(c patch.Cable) any { return c.SourceDeviceID }),
			"sourcePortId":   cableString(func(c patch.Cable) any { return c.SourcePortID }),
			"targetDeviceId": cableString(func(c patch.Cable) any { return c.TargetDeviceID }),
			"targetPortId":   cableString(func(c patch.Cable) any { return c.TargetPortID }),
			"signal":         cableString(func(c patch.Cable) any { return string(c.Signal) }),
		},
	})

	issueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Issue",
		Fields: graphql.Fields{
			"severity": issueString(func(i checks.Issue) any { return i.Severity.String() }),
			"deviceId": issueString(func(i checks.Issue) any { return i.DeviceID }),
			"portId":   issueString(func(i checks.Issue) any { return i.PortID }),
			"check":    issueString(func(i checks.Issue) any { return i.Check }),
			"message":  issueString(func(i checks.Issue) any { return i.Message }),
		},
	})

	validationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ValidationResult",
		Fields: graphql.Fields{
			"valid": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(patch.Result).Valid, nil
				},
			},
			"warning": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(patch.Result).Warning, nil
				},
			},
			"message": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(patch.Result).Message, nil
				},
			},
		},
	})

	endpointArgs := graphql.FieldConfigArgument{
		"sourceDeviceId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		"sourcePortId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"targetDeviceId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		"targetPortId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"device": &graphql.Field{
				Type: deviceType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, ok := p.Args["id"].(string)
					if !ok {
						return nil, fmt.Errorf("id argument is required")
					}
					d, err := store.GetDevice(id)
					if errors.Is(err, patch.ErrDeviceNotFound) {
						return nil, nil
					}
					return d, err
				},
			},
			"devices": &graphql.Field{
				Type: graphql.NewList(deviceType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return store.Devices(), nil
				},
			},
			"cables": &graphql.Field{
				Type: graphql.NewList(cableType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return store.Cables(), nil
				},
			},
			"audit": &graphql.Field{
				Type: graphql.NewList(issueType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return auditor.Audit(store.Snapshot()), nil
				},
			},
			"validateConnection": &graphql.Field{
				Type: validationType,
				Args: endpointArgs,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					c, err := cableFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return patch.ValidateCable(store, c), nil
				},
			},
			"wouldCreateCycle": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"sourceDeviceId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"targetDeviceId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					src, _ := p.Args["sourceDeviceId"].(string)
					dst, _ := p.Args["targetDeviceId"].(string)
					return algorithms.WouldCreateCycle(src, dst, store.Cables()), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addCable": &graphql.Field{
				Type: cableType,
				Args: endpointArgs,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					c, err := cableFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					if result := patch.ValidateCable(store, c); !result.Valid {
						return nil, fmt.Errorf("invalid connection: %s", result.Message)
					}
					return store.AddCable(c)
				},
			},
			"deleteCable": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					if err := store.DeleteCable(id); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func cableFromArgs(args map[string]any) (patch.Cable, error) {
	c := patch.Cable{}
	fields := map[string]*string{
		"sourceDeviceId": &c.SourceDeviceID,
		"sourcePortId":   &c.SourcePortID,
		"targetDeviceId": &c.TargetDeviceID,
		"targetPortId":   &c.TargetPortID,
	}
	for name, dst := range fields {
		v, ok := args[name].(string)
		if !ok || v == "" {
			return patch.Cable{}, fmt.Errorf("%s argument is required", name)
		}
		*dst = v
	}
	return c, nil
}

func stringField(get func(patch.Port) any) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return get(p.Source.(patch.Port)), nil
		},
	}
}

func cableString(get func(patch.Cable) any) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return get(p.Source.(patch.Cable)), nil
		},
	}
}

func issueString(get func(checks.Issue) any) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return get(p.Source.(checks.Issue)), nil
		},
	}
}
