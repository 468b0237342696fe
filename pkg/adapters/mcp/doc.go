// Package mcp exposes the live parameter panel to AI agents over the Model
// Context Protocol. Each panel action is a tool returning the panel messages it
// produced; the parameter table is readable as the liveparams://snapshot resource.
package mcp
