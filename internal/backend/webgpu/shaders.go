//go:build windows

package webgpu

// WGSL compute shaders for the pooling kernels.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// psroiForwardShader pools one output element per invocation.
//
// The index decomposition, window geometry and channel selection mirror
// the CPU kernel: region edges are rounded to the feature grid, a
// degenerate region is forced to span at least one cell, and bin
// windows use floor for the start edge and ceil for the end edge
// before clamping to the feature map. round_to_grid uses
// floor(v + 0.5) rather than WGSL round(), which ties to even.
const psroiForwardShader = `
struct Params {
    total: u32,
    channels: u32,
    height: u32,
    width: u32,
    out_dim: u32,
    out_h: u32,
    out_w: u32,
    group_size: u32,
    spatial_scale: f32,
}

@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> rois: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

fn round_to_grid(v: f32) -> i32 {
    return i32(floor(v + 0.5));
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.total) {
        return;
    }

    let pw = idx % params.out_w;
    let ph = (idx / params.out_w) % params.out_h;
    let c_out = (idx / (params.out_w * params.out_h)) % params.out_dim;
    let n = idx / (params.out_w * params.out_h * params.out_dim);

    let roi = n * 5u;
    let batch = u32(rois[roi]);
    let rs_w = round_to_grid(rois[roi + 1u] * params.spatial_scale);
    let rs_h = round_to_grid(rois[roi + 2u] * params.spatial_scale);
    let re_w = round_to_grid(rois[roi + 3u] * params.spatial_scale);
    let re_h = round_to_grid(rois[roi + 4u] * params.spatial_scale);

    let roi_w = max(re_w - rs_w, 1);
    let roi_h = max(re_h - rs_h, 1);
    let bin_w = f32(roi_w) / f32(params.out_w);
    let bin_h = f32(roi_h) / f32(params.out_h);

    let hstart = clamp(i32(floor(f32(rs_h) + f32(ph) * bin_h)), 0, i32(params.height));
    let hend = clamp(i32(ceil(f32(rs_h) + f32(ph + 1u) * bin_h)), 0, i32(params.height));
    let wstart = clamp(i32(floor(f32(rs_w) + f32(pw) * bin_w)), 0, i32(params.width));
    let wend = clamp(i32(ceil(f32(rs_w) + f32(pw + 1u) * bin_w)), 0, i32(params.width));

    if (hstart >= hend || wstart >= wend) {
        output[idx] = 0.0;
        return;
    }

    let gh = ph * params.group_size / params.out_h;
    let gw = pw * params.group_size / params.out_w;
    let c_src = (gh * params.group_size + gw) * params.out_dim + c_out;
    let base = (batch * params.channels + c_src) * params.height * params.width;

    var sum: f32 = 0.0;
    for (var h = hstart; h < hend; h = h + 1) {
        for (var w = wstart; w < wend; w = w + 1) {
            sum = sum + input[base + u32(h) * params.width + u32(w)];
        }
    }
    let area = f32((hend - hstart) * (wend - wstart));
    output[idx] = sum / area;
}
`

// psroiBackwardShader scatters pooled gradients back to the feature
// map, written as a gather: one invocation per input element scans the
// regions and accumulates every bin window covering that element.
//
// WGSL has no atomic float add, so the scatter formulation the CPU
// kernel uses is not expressible here; the gather visits contributions
// in a fixed order instead, which also makes the result deterministic.
const psroiBackwardShader = `
struct Params {
    total: u32,
    num_rois: u32,
    channels: u32,
    height: u32,
    width: u32,
    out_dim: u32,
    out_h: u32,
    out_w: u32,
    group_size: u32,
    spatial_scale: f32,
}

@group(0) @binding(0) var<storage, read> grad_output: array<f32>;
@group(0) @binding(1) var<storage, read> rois: array<f32>;
@group(0) @binding(2) var<storage, read_write> grad_input: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

fn round_to_grid(v: f32) -> i32 {
    return i32(floor(v + 0.5));
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.total) {
        return;
    }

    let x = idx % params.width;
    let y = (idx / params.width) % params.height;
    let c = (idx / (params.width * params.height)) % params.channels;
    let b = idx / (params.width * params.height * params.channels);

    // Each input channel feeds the bins whose group cell (gh, gw)
    // matches its decomposition. With a pooled grid finer than the
    // group grid several bins map to the same cell.
    let c_out = c % params.out_dim;
    let g = c / params.out_dim;
    let gw = g % params.group_size;
    let gh = g / params.group_size;

    var acc: f32 = 0.0;
    for (var r = 0u; r < params.num_rois; r = r + 1u) {
        let roi = r * 5u;
        if (u32(rois[roi]) != b) {
            continue;
        }

        let rs_w = round_to_grid(rois[roi + 1u] * params.spatial_scale);
        let rs_h = round_to_grid(rois[roi + 2u] * params.spatial_scale);
        let re_w = round_to_grid(rois[roi + 3u] * params.spatial_scale);
        let re_h = round_to_grid(rois[roi + 4u] * params.spatial_scale);

        let roi_w = max(re_w - rs_w, 1);
        let roi_h = max(re_h - rs_h, 1);
        let bin_w = f32(roi_w) / f32(params.out_w);
        let bin_h = f32(roi_h) / f32(params.out_h);

        for (var ph = 0u; ph < params.out_h; ph = ph + 1u) {
            if (ph * params.group_size / params.out_h != gh) {
                continue;
            }
            let hstart = clamp(i32(floor(f32(rs_h) + f32(ph) * bin_h)), 0, i32(params.height));
            let hend = clamp(i32(ceil(f32(rs_h) + f32(ph + 1u) * bin_h)), 0, i32(params.height));
            if (i32(y) < hstart || i32(y) >= hend) {
                continue;
            }
            for (var pw = 0u; pw < params.out_w; pw = pw + 1u) {
                if (pw * params.group_size / params.out_w != gw) {
                    continue;
                }
                let wstart = clamp(i32(floor(f32(rs_w) + f32(pw) * bin_w)), 0, i32(params.width));
                let wend = clamp(i32(ceil(f32(rs_w) + f32(pw + 1u) * bin_w)), 0, i32(params.width));
                if (i32(x) < wstart || i32(x) >= wend) {
                    continue;
                }

                let area = f32((hend - hstart) * (wend - wstart));
                let out_idx = ((r * params.out_dim + c_out) * params.out_h + ph) * params.out_w + pw;
                acc = acc + grad_output[out_idx] / area;
            }
        }
    }

    grad_input[idx] = acc;
}
`

// addShader performs element-wise addition: result = a + b.
// Used for gradient accumulation on the tape.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] + b[idx];
    }
}
`
