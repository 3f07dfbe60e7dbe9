// Package io serializes connectivity graphs.
//
// # Formats
//
//   - gt: graph-tool binary format, readable with graph_tool.load_graph.
//     This is the default output.
//   - graphml: GraphML XML, readable by networkx, igraph, Gephi and yEd.
//   - json: a compact JSON document; round-trips through [ReadJSON] and is
//     the representation stored in caches.
//   - dot: Graphviz source (write only), see [nodelink.ToDOT].
//
// All formats carry the vertex properties name, color, is_inst, width and
// height, and the net that produced each edge (dot only as an edge label in
// detailed mode).
//
// # JSON Format
//
//	{
//	  "directed": true,
//	  "vertices": [
//	    {"name": "A", "kind": "instance", "color": "#007dff", "width": 0.38, "height": 1.4},
//	    {"name": "P", "kind": "pin", "color": "#ff7c44", "width": 0, "height": 0}
//	  ],
//	  "edges": [{"from": "P", "to": "A", "net": "N1"}]
//	}
//
// # Usage
//
// Use [Export] to write a file, inferring the format from the extension:
//
//	if err := io.Export(g, "top.gt", ""); err != nil {
//	    log.Fatal(err)
//	}
//
// or [Write] to encode to any io.Writer. [Read] decodes gt, graphml and json.
//
// # Concurrency
//
// All functions in this package only read the graph and are safe to call
// concurrently for the same graph once construction has finished.
package io
