// Package legacy implements decode-only support for the three wire
// prefixes spec.md's "Legacy codecs" section names as deprecated and
// explicitly out of core scope: the dictionary/pattern codec ("#M2M|"),
// the key-abbreviation Token codec ("#T1|"), and the M3 schema codec
// ("#M3|"). New encoders never emit these prefixes — only DecodeX
// functions are provided, and none of them is reachable from
// pkg/codec's encode path.
package legacy

// patternDecode maps the dictionary codec's single-byte pattern codes
// (0x80-0xFF) back to the literal JSON fragment they stand for.
var patternDecode = map[byte]string{
	0x80: `{"role":"user","content":`,
	0x81: `{"role":"assistant","content":`,
	0x82: `{"role":"system","content":`,
	0x83: `"}`,
	0x84: `},`,
	0x85: `"}]`,
	0x86: `{"messages":[`,
	0x87: `{"model":`,
	0x88: `,"messages":[`,
	0x89: `,"max_tokens":`,
	0x8A: `,"temperature":`,
	0x8B: `,"stream":true`,
	0x8C: `,"stream":false`,
	0x90: `"gpt-4`,
	0x91: `"gpt-4o`,
	0x92: `"gpt-4o-mini`,
	0x93: `"gpt-3.5-turbo`,
	0x94: `"claude-3`,
	0x95: `"llama`,
	0xA0: `{"choices":[{`,
	0xA1: `"finish_reason":"stop"`,
	0xA2: `"finish_reason":"length"`,
	0xA3: `,"usage":{`,
	0xA4: `"prompt_tokens":`,
	0xA5: `,"completion_tokens":`,
	0xA6: `,"total_tokens":`,
	0xA7: `"index":0,`,
	0xA8: `"message":{`,
	0xA9: `"delta":{`,
	0xB0: `"tool_calls":[{`,
	0xB1: `"type":"function",`,
	0xB2: `"function":{`,
	0xB3: `"name":`,
	0xB4: `,"arguments":`,
}

// patternStart is the first byte value reserved for dictionary patterns;
// bytes below it are literal.
const patternStart = 0x80

// keyExpand reverses the Token codec's key abbreviations.
var keyExpand = map[string]string{
	"m": "messages", "mg": "message", "c": "content", "r": "role",
	"M": "model", "T": "temperature", "x": "max_tokens", "s": "stream",
	"S": "stop", "p": "top_p", "f": "frequency_penalty", "P": "presence_penalty",
	"n": "n", "u": "user", "Fs": "functions", "fc": "function_call",
	"N": "name", "a": "arguments", "tc": "tool_calls", "ts": "tools",
	"tx": "tool_choice", "rf": "response_format", "se": "seed",
	"lb": "logit_bias", "lp": "logprobs", "tlp": "top_logprobs",
	"C": "choices", "i": "index", "fr": "finish_reason", "U": "usage",
	"pt": "prompt_tokens", "ct": "completion_tokens", "tt": "total_tokens",
	"I": "id", "O": "object", "cr": "created", "D": "delta",
	"sf": "system_fingerprint", "t": "type", "fn": "function",
	"pm": "parameters", "ds": "description", "rq": "required",
	"pr": "properties", "txt": "text", "E": "error", "cd": "code",
}

// roleExpand reverses the Token codec's role abbreviations. "user" is
// absent on purpose: the original encoder never abbreviates it.
var roleExpand = map[string]string{
	"S": "system", "A": "assistant", "F": "function", "T": "tool",
}

// modelExpand reverses the Token codec's model-name abbreviations,
// limited to models whose tokenizer was publicly available to the
// original encoder.
var modelExpand = map[string]string{
	"g4o": "gpt-4o", "g4om": "gpt-4o-mini", "g4t": "gpt-4-turbo",
	"g4": "gpt-4", "g35t": "gpt-3.5-turbo", "o1": "o1", "o1m": "o1-mini",
	"o3": "o3", "o3m": "o3-mini",
	"l31405": "llama-3.1-405b", "l3170": "llama-3.1-70b", "l318": "llama-3.1-8b",
	"l3370": "llama-3.3-70b",
	"mll":   "mistral-large-latest", "msl": "mistral-small-latest",
	"mx87": "mixtral-8x7b", "mx822": "mixtral-8x22b",
	"dv3": "deepseek-v3", "dr1": "deepseek-r1", "dc": "deepseek-coder",
	"q2572": "qwen-2.5-72b", "q2532": "qwen-2.5-32b", "qc32": "qwen-2.5-coder-32b",
}
