package python

import (
	"strconv"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

func schemasModule(encoded []codegen.EncodedSchema) string {
	w := codegen.NewWriter("    ")
	w.Line(header)
	w.Line("import json")
	w.Line("from typing import Any, Dict, Tuple")
	w.Blank()
	w.Line("SCHEMAS: Dict[str, Dict[str, Any]] = {")
	w.Indent()
	for _, e := range encoded {
		w.Linef("%s: json.loads(%s),", codegen.LiteralJSON(e.Name), strconv.Quote(e.JSON))
	}
	w.Dedent()
	w.Line("}")
	w.Blank()
	names := make([]string, len(encoded))
	for i, e := range encoded {
		names[i] = codegen.LiteralJSON(e.Name)
	}
	w.Linef("SCHEMA_NAMES: Tuple[str, ...] = (%s)", tupleBody(names))
	return w.String()
}

func validationModule(defs []domain.SchemaDefinition) string {
	w := codegen.NewWriter("    ")
	w.Line(header)
	w.Raw(validationRuntime)

	w.Blank()
	w.Line("REQUIRED_FIELDS: Dict[str, Tuple[str, ...]] = {")
	w.Indent()
	for _, d := range defs {
		obj, ok := d.IR.(*domain.Object)
		if !ok {
			continue
		}
		names := make([]string, 0, len(obj.Properties))
		for _, n := range obj.RequiredNames() {
			names = append(names, codegen.LiteralJSON(n))
		}
		w.Linef("%s: (%s),", codegen.LiteralJSON(d.Name), tupleBody(names))
	}
	w.Dedent()
	w.Line("}")

	for _, d := range defs {
		w.Blank()
		w.Blank()
		w.Linef("def %s(data: Any) -> Any:", validatorName(d.Name))
		w.Indent()
		w.Linef(`"""Validate data as %s; raise ValidationError on failure."""`, d.Name)
		w.Linef("validate(%s, data)", codegen.LiteralJSON(d.Name))
		if _, ok := d.IR.(*domain.Object); ok {
			w.Linef("if isinstance(data, models.%s):", codegen.PyClassName(d.Name))
			w.Line("    return data")
			w.Linef("return models.%s.model_validate(data)", codegen.PyClassName(d.Name))
		} else {
			w.Line("return data")
		}
		w.Dedent()
	}

	w.Blank()
	w.Blank()
	w.Line("VALIDATORS: Dict[str, Callable[[Any], Any]] = {")
	w.Indent()
	for _, d := range defs {
		w.Linef("%s: %s,", codegen.LiteralJSON(d.Name), validatorName(d.Name))
	}
	w.Dedent()
	w.Line("}")
	return w.String()
}

func validatorName(schema string) string {
	return "validate_" + strings.TrimPrefix(codegen.PyName(schema), "_")
}

func clientModule(cfg domain.GenerationConfig) string {
	w := codegen.NewWriter("    ")
	w.Line(header)
	w.Line("from __future__ import annotations")
	w.Blank()
	w.Line("from typing import Any, Dict, Mapping, Optional")
	w.Blank()
	w.Line("import httpx")
	w.Blank()
	w.Linef("CONTRACT_VERSION = %s", codegen.LiteralJSON(cfg.ContractVersion))
	w.Linef("SDK_VERSION = %s", codegen.LiteralJSON(cfg.SDKVersion))
	w.Raw(clientRuntime)
	return w.String()
}

func initModule() string {
	w := codegen.NewWriter("    ")
	w.Line(header)
	w.Line("from .client import CONTRACT_VERSION, SDK_VERSION, ApiError, Client, default_headers")
	w.Line("from .models import *  # noqa: F401,F403")
	w.Line("from .models import __all__ as _model_names")
	w.Line("from .schemas import SCHEMA_NAMES, SCHEMAS")
	w.Line("from .validation import REQUIRED_FIELDS, VALIDATORS, ValidationError, ValidationIssue, validate, validate_by_name")
	w.Blank()
	w.Line("__version__ = SDK_VERSION")
	w.Blank()
	w.Line("__all__ = [")
	w.Indent()
	for _, name := range []string{
		"CONTRACT_VERSION", "SDK_VERSION", "ApiError", "Client", "default_headers",
		"SCHEMAS", "SCHEMA_NAMES", "REQUIRED_FIELDS", "VALIDATORS",
		"ValidationError", "ValidationIssue", "validate", "validate_by_name",
	} {
		w.Linef("%s,", strconv.Quote(name))
	}
	w.Dedent()
	w.Line("] + list(_model_names)")
	return w.String()
}

func pyproject(cfg domain.GenerationConfig, m domain.PackageManifest, dir string) string {
	w := codegen.NewWriter("")
	w.Line("[build-system]")
	w.Line(`requires = ["hatchling"]`)
	w.Line(`build-backend = "hatchling.build"`)
	w.Blank()
	w.Line("[project]")
	w.Linef("name = %s", strconv.Quote(m.Name))
	w.Linef("version = %s", strconv.Quote(m.Version))
	w.Linef("description = %s", strconv.Quote(m.Description))
	w.Line(`readme = "README.md"`)
	w.Line(`requires-python = ">=3.9"`)
	w.Line(`dependencies = ["pydantic>=2.0,<3", "httpx>=0.24"]`)
	w.Blank()
	w.Line("[tool.hatch.build.targets.wheel]")
	w.Linef("packages = [%s]", strconv.Quote(dir))
	w.Blank()
	w.Linef("[tool.%s]", codegen.Generator)
	w.Linef("contract-version = %s", strconv.Quote(cfg.ContractVersion))
	return w.String()
}

func readme(defs []domain.SchemaDefinition, cfg domain.GenerationConfig, m domain.PackageManifest, dir string) string {
	w := codegen.NewWriter("")
	w.Linef("# %s", m.Name)
	w.Blank()
	w.Linef("%s. Contract version %s.", m.Description, cfg.ContractVersion)
	w.Blank()
	w.Line("## Install")
	w.Blank()
	w.Line("```sh")
	w.Linef("pip install %s==%s", m.Name, m.Version)
	w.Line("```")
	w.Blank()
	w.Line("## Usage")
	w.Blank()
	w.Line("```python")
	w.Linef("from %s import Client, validate_by_name", dir)
	w.Blank()
	w.Line(`client = Client("https://api.example.com")`)
	if len(defs) > 0 {
		w.Linef("issues = validate_by_name(%s, payload)", codegen.LiteralJSON(defs[0].Name))
	}
	w.Line("```")
	w.Blank()
	w.Line("## Schemas")
	w.Blank()
	if len(defs) == 0 {
		w.Line("No schemas.")
	}
	for _, d := range defs {
		w.Linef("- `%s` (%s)", codegen.PyClassName(d.Name), categoryOf(d))
	}
	return w.String()
}

const validationRuntime = `from __future__ import annotations

import re
from dataclasses import dataclass
from typing import Any, Callable, Dict, List, Tuple

from . import models
from .schemas import SCHEMAS

_MAX_DEPTH = 64

_FORMATS = {
    "email": re.compile(r"^[^\s@]+@[^\s@]+\.[^\s@]+$"),
    "uri": re.compile(r"^[a-zA-Z][a-zA-Z0-9+.-]*:\S+$"),
    "uuid": re.compile(r"^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"),
    "date-time": re.compile(r"^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$"),
}

_MISSING = object()


@dataclass(frozen=True)
class ValidationIssue:
    path: str
    message: str


class ValidationError(ValueError):
    def __init__(self, schema: str, issues: List[ValidationIssue]) -> None:
        self.schema = schema
        self.issues = issues
        detail = "; ".join((i.path + " " if i.path else "") + i.message for i in issues)
        super().__init__(schema + ": " + detail)


def _join(path: str, key: str) -> str:
    return path + "." + key if path else key


def _is_number(value: Any) -> bool:
    return isinstance(value, (int, float)) and not isinstance(value, bool)


def _check(desc: Dict[str, Any], value: Any, path: str, issues: List[ValidationIssue], depth: int) -> None:
    if depth > _MAX_DEPTH:
        return
    kind = desc.get("kind")
    if kind == "string":
        if not isinstance(value, str):
            issues.append(ValidationIssue(path, "expected string"))
            return
        if "minLength" in desc and len(value) < desc["minLength"]:
            issues.append(ValidationIssue(path, "must be at least %d characters" % desc["minLength"]))
        if "maxLength" in desc and len(value) > desc["maxLength"]:
            issues.append(ValidationIssue(path, "must be at most %d characters" % desc["maxLength"]))
        pattern = _FORMATS.get(desc.get("format", ""))
        if pattern is not None and not pattern.match(value):
            issues.append(ValidationIssue(path, "must be a valid " + desc["format"]))
    elif kind == "number":
        if not _is_number(value):
            issues.append(ValidationIssue(path, "expected number"))
            return
        if desc.get("integer") and not float(value).is_integer():
            issues.append(ValidationIssue(path, "must be an integer"))
        if "min" in desc and value < desc["min"]:
            issues.append(ValidationIssue(path, "must be >= %s" % desc["min"]))
        if "max" in desc and value > desc["max"]:
            issues.append(ValidationIssue(path, "must be <= %s" % desc["max"]))
    elif kind == "boolean":
        if not isinstance(value, bool):
            issues.append(ValidationIssue(path, "expected boolean"))
    elif kind == "null":
        if value is not None:
            issues.append(ValidationIssue(path, "expected null"))
    elif kind == "array":
        if not isinstance(value, (list, tuple)):
            issues.append(ValidationIssue(path, "expected array"))
            return
        for i, item in enumerate(value):
            _check(desc.get("items", {"kind": "unknown"}), item, "%s[%d]" % (path, i), issues, depth + 1)
    elif kind == "object":
        if not isinstance(value, dict):
            issues.append(ValidationIssue(path, "expected object"))
            return
        for prop in desc.get("properties", []):
            field = value.get(prop["name"], _MISSING)
            field_path = _join(path, prop["name"])
            if field is _MISSING:
                if prop["required"]:
                    issues.append(ValidationIssue(field_path, "is required"))
                continue
            if prop["required"] and prop["type"].get("kind") == "string" and field == "":
                issues.append(ValidationIssue(field_path, "is required"))
                continue
            _check(prop["type"], field, field_path, issues, depth + 1)
    elif kind == "record":
        if not isinstance(value, dict):
            issues.append(ValidationIssue(path, "expected object"))
            return
        for key, item in value.items():
            _check(desc.get("valueType", {"kind": "unknown"}), item, _join(path, str(key)), issues, depth + 1)
    elif kind == "enum":
        if value not in desc.get("values", []):
            issues.append(ValidationIssue(path, "must be one of " + ", ".join(desc.get("values", []))))
    elif kind == "union":
        for variant in desc.get("variants", []):
            sub: List[ValidationIssue] = []
            _check(variant, value, path, sub, depth + 1)
            if not sub:
                return
        issues.append(ValidationIssue(path, "does not match any variant"))
    elif kind == "literal":
        if value != desc.get("value") or isinstance(value, bool) != isinstance(desc.get("value"), bool):
            issues.append(ValidationIssue(path, "must be %r" % (desc.get("value"),)))
    elif kind in ("optional", "default"):
        if value is not _MISSING:
            _check(desc.get("inner", {"kind": "unknown"}), value, path, issues, depth + 1)
    elif kind == "ref":
        target = SCHEMAS.get(desc.get("target", ""))
        if target is None:
            issues.append(ValidationIssue(path, "references unknown schema %s" % desc.get("target")))
            return
        _check(target, value, path, issues, depth + 1)


def validate_by_name(name: str, data: Any) -> List[ValidationIssue]:
    """Validate data against the named schema descriptor and return every issue found."""
    desc = SCHEMAS.get(name)
    if desc is None:
        return [ValidationIssue("", "unknown schema " + name)]
    if hasattr(data, "model_dump"):
        data = data.model_dump(by_alias=True, exclude_unset=True)
    issues: List[ValidationIssue] = []
    _check(desc, data, "", issues, 0)
    return issues


def validate(name: str, data: Any) -> None:
    """Like validate_by_name, but raise ValidationError when any issue is found."""
    issues = validate_by_name(name, data)
    if issues:
        raise ValidationError(name, issues)
`

const clientRuntime = `

def default_headers() -> Dict[str, str]:
    return {
        "Content-Type": "application/json",
        "Accept": "application/json",
        "X-Contract-Version": CONTRACT_VERSION,
        "X-SDK-Version": SDK_VERSION,
    }


class ApiError(Exception):
    def __init__(self, status: int, body: Any) -> None:
        super().__init__("request failed with status %d" % status)
        self.status = status
        self.body = body


class Client:
    """Minimal HTTP client that sends the contract version with every request."""

    def __init__(
        self,
        base_url: str,
        headers: Optional[Mapping[str, str]] = None,
        timeout: float = 30.0,
        transport: Optional[httpx.BaseTransport] = None,
    ) -> None:
        merged = default_headers()
        merged.update(headers or {})
        self._http = httpx.Client(base_url=base_url.rstrip("/"), headers=merged, timeout=timeout, transport=transport)

    def request(
        self,
        method: str,
        path: str,
        json: Any = None,
        params: Optional[Mapping[str, Any]] = None,
        headers: Optional[Mapping[str, str]] = None,
    ) -> Any:
        response = self._http.request(method, path, json=json, params=params, headers=headers)
        body = response.json() if response.content else None
        if response.is_error:
            raise ApiError(response.status_code, body)
        return body

    def get(self, path: str, **kwargs: Any) -> Any:
        return self.request("GET", path, **kwargs)

    def post(self, path: str, json: Any = None, **kwargs: Any) -> Any:
        return self.request("POST", path, json=json, **kwargs)

    def put(self, path: str, json: Any = None, **kwargs: Any) -> Any:
        return self.request("PUT", path, json=json, **kwargs)

    def patch(self, path: str, json: Any = None, **kwargs: Any) -> Any:
        return self.request("PATCH", path, json=json, **kwargs)

    def delete(self, path: str, **kwargs: Any) -> Any:
        return self.request("DELETE", path, **kwargs)

    def close(self) -> None:
        self._http.close()

    def __enter__(self) -> "Client":
        return self

    def __exit__(self, *exc: Any) -> None:
        self.close()
`
