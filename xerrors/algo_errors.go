package xerrors

var (
	// ErrEmptyKey 查找树的键不能为空。
	ErrEmptyKey = New(ErrInvalidArg, 400101, "empty key", "lookup keys must contain at least one character", nil)
	// ErrInvalidLookupResult 查找结果缺少键或节点。
	ErrInvalidLookupResult = New(ErrInvalidArg, 400102, "invalid lookup result", "lookup result requires a non-empty key and a node", nil)
	// ErrEmptyTerm 字典词条不能为空。
	ErrEmptyTerm = New(ErrInvalidArg, 400103, "empty term", "dictionary terms must not be empty", nil)
	// ErrEmptyPrefix 补全前缀不能为空。
	ErrEmptyPrefix = New(ErrInvalidArg, 400104, "empty prefix", "completion prefix must not be empty", nil)
	// ErrInvalidKey 查找树的键必须是合法的 UTF-8。
	ErrInvalidKey = New(ErrInvalidArg, 400105, "invalid key", "lookup keys must be valid UTF-8", nil)
	// ErrNotRootNode 只能在根节点上插入。
	ErrNotRootNode = New(ErrInvalidArg, 400106, "not a root node", "values can only be put through the root node", nil)
	// ErrTermNotFound 词条不存在。
	ErrTermNotFound = New(ErrNotFound, 404101, "term not found", "the dictionary holds no such term", nil)
	// ErrSourceUnavailable 词条来源读取失败。
	ErrSourceUnavailable = New(ErrInternal, 500101, "source unavailable", "failed to read terms from seed source", nil)
)
