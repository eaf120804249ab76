package typescript

import (
	"fmt"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

func schemasModule(encoded []codegen.EncodedSchema) string {
	w := codegen.NewWriter("  ")
	w.Line(header)
	w.Raw(descriptorType)
	w.Blank()
	w.Block("export const schemas: Record<string, SchemaDescriptor> = {", "};", func() {
		for _, e := range encoded {
			w.Linef("%s: %s,", codegen.LiteralJSON(e.Name), e.JSON)
		}
	})
	w.Blank()
	names := make([]string, len(encoded))
	for i, e := range encoded {
		names[i] = codegen.LiteralJSON(e.Name)
	}
	w.Linef("export const schemaNames = [%s] as const;", strings.Join(names, ", "))
	w.Line("export type SchemaName = (typeof schemaNames)[number];")
	return w.String()
}

func validationModule(defs []domain.SchemaDefinition) string {
	w := codegen.NewWriter("  ")
	w.Line(header)
	w.Line(`import { schemas, type SchemaDescriptor } from "./schemas";`)
	if len(defs) > 0 {
		w.Line(`import type * as T from "./types";`)
	}
	w.Raw(validationRuntime)

	w.Blank()
	w.Block("export const requiredFields: Record<string, readonly string[]> = {", "};", func() {
		for _, d := range defs {
			obj, ok := d.IR.(*domain.Object)
			if !ok {
				continue
			}
			names := make([]string, 0, len(obj.Properties))
			for _, n := range obj.RequiredNames() {
				names = append(names, codegen.LiteralJSON(n))
			}
			w.Linef("%s: [%s],", codegen.LiteralJSON(d.Name), strings.Join(names, ", "))
		}
	})

	for _, d := range defs {
		fn := validatorName(d.Name)
		w.Blank()
		w.Linef("/** Validates a %s and returns it typed, or throws ValidationError. */", d.Name)
		w.Block(fmt.Sprintf("export function %s(value: unknown): T.%s {", fn, codegen.TSTypeName(d.Name)), "}", func() {
			w.Linef("assertValid(%s, value);", codegen.LiteralJSON(d.Name))
			w.Linef("return value as T.%s;", codegen.TSTypeName(d.Name))
		})
	}

	w.Blank()
	w.Block("export const validators: Record<string, (value: unknown) => unknown> = {", "};", func() {
		for _, d := range defs {
			w.Linef("%s: %s,", codegen.LiteralJSON(d.Name), validatorName(d.Name))
		}
	})
	return w.String()
}

func validatorName(schema string) string {
	return "validate" + codegen.TSTypeName(schema)
}

func clientModule(cfg domain.GenerationConfig) string {
	w := codegen.NewWriter("  ")
	w.Line(header)
	w.Linef("export const CONTRACT_VERSION = %s;", codegen.LiteralJSON(cfg.ContractVersion))
	w.Linef("export const SDK_VERSION = %s;", codegen.LiteralJSON(cfg.SDKVersion))
	w.Raw(clientRuntime)
	return w.String()
}

func indexModule() string {
	w := codegen.NewWriter("  ")
	w.Line(header)
	w.Line(`export * from "./types";`)
	w.Line(`export { schemas, schemaNames } from "./schemas";`)
	w.Line(`export type { SchemaDescriptor, SchemaName } from "./schemas";`)
	w.Line(`export { ValidationError, validate, validateByName, validators, requiredFields } from "./validation";`)
	w.Line(`export type { ValidationIssue } from "./validation";`)
	w.Line(`export { ApiError, Client, CONTRACT_VERSION, SDK_VERSION } from "./client";`)
	w.Line(`export type { ClientOptions, RequestOptions } from "./client";`)
	return w.String()
}

func readme(defs []domain.SchemaDefinition, cfg domain.GenerationConfig, m domain.PackageManifest) string {
	w := codegen.NewWriter("")
	w.Linef("# %s", m.Name)
	w.Blank()
	w.Linef("%s. Contract version %s.", m.Description, cfg.ContractVersion)
	w.Blank()
	w.Line("## Install")
	w.Blank()
	w.Line("```sh")
	w.Linef("npm install %s@%s", m.Name, m.Version)
	w.Line("```")
	w.Blank()
	w.Line("## Usage")
	w.Blank()
	w.Line("```ts")
	w.Linef(`import { Client, validateByName } from "%s";`, m.Name)
	w.Blank()
	w.Line(`const client = new Client({ baseUrl: "https://api.example.com" });`)
	if len(defs) > 0 {
		w.Linef(`const issues = validateByName(%s, payload);`, codegen.LiteralJSON(defs[0].Name))
	}
	w.Line("```")
	w.Blank()
	w.Line("## Schemas")
	w.Blank()
	if len(defs) == 0 {
		w.Line("No schemas.")
	}
	for _, d := range defs {
		w.Linef("- `%s` (%s)", codegen.TSTypeName(d.Name), categoryOf(d))
	}
	return w.String()
}

const descriptorType = `
export interface SchemaDescriptor {
  kind: string;
  minLength?: number;
  maxLength?: number;
  format?: string;
  min?: number;
  max?: number;
  integer?: boolean;
  items?: SchemaDescriptor;
  properties?: { name: string; required: boolean; type: SchemaDescriptor }[];
  valueType?: SchemaDescriptor;
  values?: string[];
  variants?: SchemaDescriptor[];
  discriminator?: string;
  value?: unknown;
  inner?: SchemaDescriptor;
  default?: unknown;
  target?: string;
}
`

const validationRuntime = `
export interface ValidationIssue {
  path: string;
  message: string;
}

export class ValidationError extends Error {
  readonly schema: string;
  readonly issues: ValidationIssue[];

  constructor(schema: string, issues: ValidationIssue[]) {
    super(schema + ": " + issues.map((i) => (i.path ? i.path + " " : "") + i.message).join("; "));
    this.name = "ValidationError";
    this.schema = schema;
    this.issues = issues;
  }
}

const MAX_DEPTH = 64;

const FORMATS: Record<string, RegExp> = {
  email: /^[^\s@]+@[^\s@]+\.[^\s@]+$/,
  uri: /^[a-zA-Z][a-zA-Z0-9+.-]*:\S+$/,
  uuid: /^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$/,
  "date-time": /^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$/,
};

function join(path: string, key: string): string {
  return path ? path + "." + key : key;
}

function isPlainObject(value: unknown): value is Record<string, unknown> {
  return typeof value === "object" && value !== null && !Array.isArray(value);
}

function check(desc: SchemaDescriptor, value: unknown, path: string, issues: ValidationIssue[], depth: number): void {
  if (depth > MAX_DEPTH) {
    return;
  }
  switch (desc.kind) {
    case "string": {
      if (typeof value !== "string") {
        issues.push({ path, message: "expected string" });
        return;
      }
      if (desc.minLength !== undefined && value.length < desc.minLength) {
        issues.push({ path, message: "must be at least " + desc.minLength + " characters" });
      }
      if (desc.maxLength !== undefined && value.length > desc.maxLength) {
        issues.push({ path, message: "must be at most " + desc.maxLength + " characters" });
      }
      if (desc.format && FORMATS[desc.format] && !FORMATS[desc.format].test(value)) {
        issues.push({ path, message: "must be a valid " + desc.format });
      }
      return;
    }
    case "number": {
      if (typeof value !== "number" || Number.isNaN(value)) {
        issues.push({ path, message: "expected number" });
        return;
      }
      if (desc.integer && !Number.isInteger(value)) {
        issues.push({ path, message: "must be an integer" });
      }
      if (desc.min !== undefined && value < desc.min) {
        issues.push({ path, message: "must be >= " + desc.min });
      }
      if (desc.max !== undefined && value > desc.max) {
        issues.push({ path, message: "must be <= " + desc.max });
      }
      return;
    }
    case "boolean":
      if (typeof value !== "boolean") {
        issues.push({ path, message: "expected boolean" });
      }
      return;
    case "null":
      if (value !== null) {
        issues.push({ path, message: "expected null" });
      }
      return;
    case "array":
      if (!Array.isArray(value)) {
        issues.push({ path, message: "expected array" });
        return;
      }
      value.forEach((item, i) => check(desc.items ?? { kind: "unknown" }, item, path + "[" + i + "]", issues, depth + 1));
      return;
    case "object": {
      if (!isPlainObject(value)) {
        issues.push({ path, message: "expected object" });
        return;
      }
      for (const prop of desc.properties ?? []) {
        const field = value[prop.name];
        const fieldPath = join(path, prop.name);
        if (field === undefined) {
          if (prop.required) {
            issues.push({ path: fieldPath, message: "is required" });
          }
          continue;
        }
        if (prop.required && prop.type.kind === "string" && field === "") {
          issues.push({ path: fieldPath, message: "is required" });
          continue;
        }
        check(prop.type, field, fieldPath, issues, depth + 1);
      }
      return;
    }
    case "record":
      if (!isPlainObject(value)) {
        issues.push({ path, message: "expected object" });
        return;
      }
      for (const [key, item] of Object.entries(value)) {
        check(desc.valueType ?? { kind: "unknown" }, item, join(path, key), issues, depth + 1);
      }
      return;
    case "enum":
      if (typeof value !== "string" || !(desc.values ?? []).includes(value)) {
        issues.push({ path, message: "must be one of " + (desc.values ?? []).join(", ") });
      }
      return;
    case "union": {
      const matched = (desc.variants ?? []).some((variant) => {
        const sub: ValidationIssue[] = [];
        check(variant, value, path, sub, depth + 1);
        return sub.length === 0;
      });
      if (!matched) {
        issues.push({ path, message: "does not match any variant" });
      }
      return;
    }
    case "literal":
      if (value !== desc.value) {
        issues.push({ path, message: "must be " + JSON.stringify(desc.value) });
      }
      return;
    case "optional":
    case "default":
      if (value !== undefined) {
        check(desc.inner ?? { kind: "unknown" }, value, path, issues, depth + 1);
      }
      return;
    case "ref": {
      const target = desc.target ? schemas[desc.target] : undefined;
      if (!target) {
        issues.push({ path, message: "references unknown schema " + desc.target });
        return;
      }
      check(target, value, path, issues, depth + 1);
      return;
    }
    default:
      return;
  }
}

/** Validates value against the named schema descriptor and returns every issue found. */
export function validateByName(name: string, value: unknown): ValidationIssue[] {
  const desc = schemas[name];
  if (!desc) {
    return [{ path: "", message: "unknown schema " + name }];
  }
  const issues: ValidationIssue[] = [];
  check(desc, value, "", issues, 0);
  return issues;
}

/** Like validateByName, but throws ValidationError when any issue is found. */
export function validate(name: string, value: unknown): void {
  assertValid(name, value);
}

function assertValid(name: string, value: unknown): void {
  const issues = validateByName(name, value);
  if (issues.length > 0) {
    throw new ValidationError(name, issues);
  }
}
`

const clientRuntime = `
export interface ClientOptions {
  baseUrl: string;
  headers?: Record<string, string>;
  timeoutMs?: number;
  fetch?: typeof fetch;
}

export interface RequestOptions {
  headers?: Record<string, string>;
  query?: Record<string, string | number | boolean | undefined>;
  signal?: AbortSignal;
}

export class ApiError extends Error {
  readonly status: number;
  readonly body: unknown;

  constructor(status: number, body: unknown) {
    super("request failed with status " + status);
    this.name = "ApiError";
    this.status = status;
    this.body = body;
  }
}

export class Client {
  private readonly baseUrl: string;
  private readonly headers: Record<string, string>;
  private readonly timeoutMs: number;
  private readonly fetchImpl: typeof fetch;

  constructor(options: ClientOptions) {
    this.baseUrl = options.baseUrl.replace(/\/+$/, "");
    this.headers = { ...Client.defaultHeaders(), ...(options.headers ?? {}) };
    this.timeoutMs = options.timeoutMs ?? 30000;
    this.fetchImpl = options.fetch ?? fetch;
  }

  static defaultHeaders(): Record<string, string> {
    return {
      "Content-Type": "application/json",
      Accept: "application/json",
      "X-Contract-Version": CONTRACT_VERSION,
      "X-SDK-Version": SDK_VERSION,
    };
  }

  async request<T>(method: string, path: string, body?: unknown, options: RequestOptions = {}): Promise<T> {
    const url = new URL(this.baseUrl + path);
    for (const [key, value] of Object.entries(options.query ?? {})) {
      if (value !== undefined) {
        url.searchParams.set(key, String(value));
      }
    }
    const controller = new AbortController();
    const timer = setTimeout(() => controller.abort(), this.timeoutMs);
    options.signal?.addEventListener("abort", () => controller.abort());
    try {
      const response = await this.fetchImpl(url.toString(), {
        method,
        headers: { ...this.headers, ...(options.headers ?? {}) },
        body: body === undefined ? undefined : JSON.stringify(body),
        signal: controller.signal,
      });
      const text = await response.text();
      const payload = text ? JSON.parse(text) : undefined;
      if (!response.ok) {
        throw new ApiError(response.status, payload);
      }
      return payload as T;
    } finally {
      clearTimeout(timer);
    }
  }

  get<T>(path: string, options?: RequestOptions): Promise<T> {
    return this.request<T>("GET", path, undefined, options);
  }

  post<T>(path: string, body?: unknown, options?: RequestOptions): Promise<T> {
    return this.request<T>("POST", path, body, options);
  }

  put<T>(path: string, body?: unknown, options?: RequestOptions): Promise<T> {
    return this.request<T>("PUT", path, body, options);
  }

  patch<T>(path: string, body?: unknown, options?: RequestOptions): Promise<T> {
    return this.request<T>("PATCH", path, body, options);
  }

  delete<T>(path: string, options?: RequestOptions): Promise<T> {
    return this.request<T>("DELETE", path, undefined, options);
  }
}
`
