package access

var defaultExtensions = DefaultProtectedExtensions()

// Decision is the outcome of evaluating a request.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Request carries the two request attributes the evaluator looks at.
type Request struct {
	Path       string
	RemoteAddr string
}

// Evaluator decides whether requests may proceed. The zero value protects
// DefaultProtectedExtensions, uses DefaultIndexName and has no explicitly
// allowed hosts.
type Evaluator struct {
	Extensions ExtensionSet
	IndexName  string
	Hosts      HostSet
}

// Decide evaluates req against list with the default index name and no
// explicitly allowed hosts.
func Decide(req Request, list *Allowlist, exts ExtensionSet) Decision {
	return Evaluator{Extensions: exts}.Decide(req, list)
}

// Decide returns Allow when the request path is not protected, or when the
// remote address is loopback, an explicitly allowed host, a literal
// allowlist entry, or inside any allowlisted range.
func (e Evaluator) Decide(req Request, list *Allowlist) Decision {
	exts := e.Extensions
	if exts == nil {
		exts = defaultExtensions
	}

	if !exts.Has(ExtensionFor(req.Path, e.IndexName)) {
		return Allow
	}

	addr, err := ParseAddress(req.RemoteAddr)
	if err != nil {
		return Deny
	}

	isLoopback := addr == LoopbackAddress
	isExplicitlyAllowed := e.Hosts != nil && e.Hosts.Contains(addr)
	isLiteralAllowed := list.ContainsAddress(addr)
	isCidrAllowed := list.MatchesCIDR(addr)

	if isLoopback || isExplicitlyAllowed || isLiteralAllowed || isCidrAllowed {
		return Allow
	}
	return Deny
}
