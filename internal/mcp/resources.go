package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

const capabilitiesURI = "taskdesk://capabilities"

func registerCapabilities(server *sdkmcp.Server, c *console.Console) {
	server.AddResource(&sdkmcp.Resource{
		URI:         capabilitiesURI,
		Name:        "capabilities",
		Title:       "Role capabilities",
		Description: "Views, forms and actions each role can reach",
		MIMEType:    "text/markdown",
	}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		uri := capabilitiesURI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     renderCapabilities(c.Gate().Table()),
			}},
		}, nil
	})
}

// renderCapabilities writes table as one markdown section per role, in role
// then menu order.
func renderCapabilities(table access.Table) string {
	var b strings.Builder
	b.WriteString("# Capabilities\n")
	for _, role := range user.Roles {
		layout := console.LayoutFor(table, role)
		fmt.Fprintf(&b, "\n## %s\n\n", role)
		if len(layout.Views) == 0 {
			b.WriteString("No views.\n")
			continue
		}
		b.WriteString("| View | Actions |\n|---|---|\n")
		for _, v := range layout.Views {
			actions := make([]string, 0, len(layout.Actions[v]))
			for _, a := range layout.Actions[v] {
				actions = append(actions, string(a))
			}
			if len(actions) == 0 {
				actions = append(actions, "read only")
			}
			fmt.Fprintf(&b, "| %s | %s |\n", v, strings.Join(actions, ", "))
		}
		if len(layout.Forms) > 0 {
			forms := make([]string, 0, len(layout.Forms))
			for _, f := range layout.Forms {
				forms = append(forms, string(f))
			}
			fmt.Fprintf(&b, "\nForms: %s\n", strings.Join(forms, ", "))
		}
	}
	return b.String()
}
