package device

// KernelName is the entry point of RHSKernelSource.
const KernelName = "computeAndApplyRHS"

// RHSKernelSource evaluates one element per @inner iteration. Levels and
// points are walked serially inside the element, so every stage finishes
// before the next one reads its output.
const RHSKernelSource = `
#define IDX2(i, j) ((i) * NP + (j))
#define IDX3(l, i, j) ((l) * NPP + (i) * NP + (j))
#define DI(r, c, i, j) (((r) * 2 + (c)) * NPP + (i) * NP + (j))

void gradient_sphere(const real_t* s, const real_t* dinv, const real_t rr,
                     real_t* g, const int accumulate) {
    for (int i = 0; i < NP; ++i) {
        for (int j = 0; j < NP; ++j) {
            real_t v1 = REAL_ZERO;
            real_t v2 = REAL_ZERO;
            for (int k = 0; k < NP; ++k) {
                v1 += Dvv[j][k] * s[IDX2(i, k)];
                v2 += Dvv[i][k] * s[IDX2(k, j)];
            }
            const real_t g0 = rr * (dinv[DI(0, 0, i, j)] * v1 + dinv[DI(1, 0, i, j)] * v2);
            const real_t g1 = rr * (dinv[DI(0, 1, i, j)] * v1 + dinv[DI(1, 1, i, j)] * v2);
            if (accumulate) {
                g[IDX2(i, j)] += g0;
                g[NPP + IDX2(i, j)] += g1;
            } else {
                g[IDX2(i, j)] = g0;
                g[NPP + IDX2(i, j)] = g1;
            }
        }
    }
}

void divergence_sphere(const real_t* v, const real_t* dinv, const real_t* metdet,
                       const real_t rr, real_t* out) {
    real_t gv[2 * NPP];
    for (int i = 0; i < NP; ++i) {
        for (int j = 0; j < NP; ++j) {
            const real_t u0 = v[IDX2(i, j)];
            const real_t u1 = v[NPP + IDX2(i, j)];
            gv[IDX2(i, j)] = metdet[IDX2(i, j)] *
                (dinv[DI(0, 0, i, j)] * u0 + dinv[DI(0, 1, i, j)] * u1);
            gv[NPP + IDX2(i, j)] = metdet[IDX2(i, j)] *
                (dinv[DI(1, 0, i, j)] * u0 + dinv[DI(1, 1, i, j)] * u1);
        }
    }
    for (int i = 0; i < NP; ++i) {
        for (int j = 0; j < NP; ++j) {
            real_t dxi = REAL_ZERO;
            real_t deta = REAL_ZERO;
            for (int k = 0; k < NP; ++k) {
                dxi += Dvv[j][k] * gv[IDX2(i, k)];
                deta += Dvv[i][k] * gv[NPP + IDX2(k, j)];
            }
            out[IDX2(i, j)] = (dxi + deta) * rr / metdet[IDX2(i, j)];
        }
    }
}

void vorticity_sphere(const real_t* u, const real_t* v, const real_t* d,
                      const real_t* metdet, const real_t rr, real_t* out) {
    real_t vco[2 * NPP];
    for (int i = 0; i < NP; ++i) {
        for (int j = 0; j < NP; ++j) {
            vco[IDX2(i, j)] = u[IDX2(i, j)] * d[DI(0, 0, i, j)] + v[IDX2(i, j)] * d[DI(1, 0, i, j)];
            vco[NPP + IDX2(i, j)] = u[IDX2(i, j)] * d[DI(0, 1, i, j)] + v[IDX2(i, j)] * d[DI(1, 1, i, j)];
        }
    }
    for (int i = 0; i < NP; ++i) {
        for (int j = 0; j < NP; ++j) {
            real_t dxi = REAL_ZERO;
            real_t deta = REAL_ZERO;
            for (int k = 0; k < NP; ++k) {
                dxi += Dvv[j][k] * vco[NPP + IDX2(i, k)];
                deta += Dvv[i][k] * vco[IDX2(k, j)];
            }
            out[IDX2(i, j)] = (dxi - deta) * rr / metdet[IDX2(i, j)];
        }
    }
}

@kernel void computeAndApplyRHS(
    const int_t* K,
    const real_t* State_global,
    const int_t* State_offsets,
    const real_t* Metric_global,
    const int_t* Metric_offsets,
    real_t* Accum_global,
    const int_t* Accum_offsets,
    real_t* Out_global,
    const int_t* Out_offsets,
    const real_t dt2,
    const real_t rgas,
    const real_t rwater_vapor,
    const real_t kappa,
    const real_t eta_ave_w,
    const real_t hybrid_a0,
    const real_t ps0,
    const real_t rrearth
) {
    for (int part = 0; part < NPART; ++part; @outer) {
        for (int elem = 0; elem < KpartMax; ++elem; @inner) {
            if (elem < K[part]) {
                const real_t* st = State_PART(part) + elem * STATE_STRIDE;
                const real_t* mt = Metric_PART(part) + elem * METRIC_STRIDE;
                real_t* ac = Accum_PART(part) + elem * ACCUM_STRIDE;
                real_t* out = Out_PART(part) + elem * OUT_STRIDE;

                const real_t* u = st + ST_U0;
                const real_t* v = st + ST_V0;
                const real_t* t = st + ST_T0;
                const real_t* dp = st + ST_DP0;
                const real_t* dinv = mt + MT_DINV;
                const real_t* metdet = mt + MT_METDET;
                const real_t* spheremp = mt + MT_SPHEREMP;

                real_t p[LEV_SIZE];
                real_t tv[LEV_SIZE];
                real_t div[LEV_SIZE];
                real_t omega[LEV_SIZE];
                real_t vbuf[2 * NPP];
                real_t sbuf[NPP];
                real_t suml[NPP];

                out[OUT_FAULT] = REAL_ZERO;
                out[OUT_FAULT + 1] = REAL_ZERO;

                // pressure, top down
                for (int n = 0; n < NPP; ++n) {
                    p[n] = hybrid_a0 * ps0 + 0.5 * dp[n];
                }
                for (int l = 1; l < NUM_LEV; ++l) {
                    for (int n = 0; n < NPP; ++n) {
                        p[l * NPP + n] = p[(l - 1) * NPP + n] +
                            0.5 * (dp[(l - 1) * NPP + n] + dp[l * NPP + n]);
                    }
                }
                for (int n = 0; n < LEV_SIZE; ++n) {
                    if (!(p[n] > REAL_ZERO) && out[OUT_FAULT] == REAL_ZERO) {
                        out[OUT_FAULT] = n + 1;
                        out[OUT_FAULT + 1] = p[n];
                    }
                }

                // virtual temperature and mass flux divergence
                for (int l = 0; l < NUM_LEV; ++l) {
                    for (int n = 0; n < NPP; ++n) {
                        const int ln = l * NPP + n;
#if MOIST
                        const real_t qt = st[ST_QDP + ln] / dp[ln];
                        tv[ln] = t[ln] * (REAL_ONE + (rwater_vapor / rgas - REAL_ONE) * qt);
#else
                        tv[ln] = t[ln];
#endif
                        vbuf[n] = u[ln] * dp[ln];
                        vbuf[NPP + n] = v[ln] * dp[ln];
                        ac[AC_UN0 + ln] += eta_ave_w * vbuf[n];
                        ac[AC_VN0 + ln] += eta_ave_w * vbuf[NPP + n];
                    }
                    divergence_sphere(vbuf, dinv, metdet, rrearth, div + l * NPP);
                }

                // geopotential, bottom up
                {
                    real_t* phi = out + OUT_PHI;
                    const real_t* phis = mt + MT_PHIS;
                    const int bot = (NUM_LEV - 1) * NPP;
                    for (int n = 0; n < NPP; ++n) {
                        suml[n] = rgas * tv[bot + n] * dp[bot + n] / p[bot + n];
                        phi[bot + n] = phis[n] + 0.5 * suml[n];
                    }
                    for (int l = NUM_LEV - 2; l >= 0; --l) {
                        for (int n = 0; n < NPP; ++n) {
                            const int ln = l * NPP + n;
                            const real_t term = rgas * tv[ln] * dp[ln] / p[ln];
                            phi[ln] = phis[n] + suml[n] + 0.5 * term;
                            suml[n] += term;
                        }
                    }
                }

                // omega_p, top down
                for (int l = 0; l < NUM_LEV; ++l) {
                    gradient_sphere(p + l * NPP, dinv, rrearth, vbuf, 0);
                    for (int n = 0; n < NPP; ++n) {
                        const int ln = l * NPP + n;
                        const real_t vgrad_p = u[ln] * vbuf[n] + v[ln] * vbuf[NPP + n];
                        const real_t ckk = 0.5 / p[ln];
                        if (l == 0) {
                            omega[ln] = vgrad_p / p[ln] - ckk * div[ln];
                            suml[n] = div[ln];
                        } else {
                            omega[ln] = vgrad_p / p[ln] - 2.0 * ckk * suml[n] - ckk * div[ln];
                            if (l < NUM_LEV - 1) {
                                suml[n] += div[ln];
                            }
                        }
                    }
                }

                // momentum
                for (int l = 0; l < NUM_LEV; ++l) {
                    const int lo = l * NPP;
                    gradient_sphere(p + lo, dinv, rrearth, vbuf, 0);
                    for (int n = 0; n < NPP; ++n) {
                        const real_t fac = rgas * (tv[lo + n] / p[lo + n]);
                        vbuf[n] *= fac;
                        vbuf[NPP + n] *= fac;
                        sbuf[n] = 0.5 * (u[lo + n] * u[lo + n] + v[lo + n] * v[lo + n]) +
                            out[OUT_PHI + lo + n] + st[ST_PECND + lo + n];
                    }
                    gradient_sphere(sbuf, dinv, rrearth, vbuf, 1);
                    vorticity_sphere(u + lo, v + lo, mt + MT_D, metdet, rrearth, sbuf);
                    for (int n = 0; n < NPP; ++n) {
                        const real_t vort = sbuf[n] + mt[MT_FCOR + n];
                        const real_t vtens1 = v[lo + n] * vort - vbuf[n];
                        const real_t vtens2 = -u[lo + n] * vort - vbuf[NPP + n];
                        out[OUT_U + lo + n] = spheremp[n] * (st[ST_UM1 + lo + n] + dt2 * vtens1);
                        out[OUT_V + lo + n] = spheremp[n] * (st[ST_VM1 + lo + n] + dt2 * vtens2);
                    }
                }

                // vertical flux, held at zero
                for (int n = 0; n < NUM_LEV_P * NPP; ++n) {
                    ac[AC_ETA + n] += eta_ave_w * REAL_ZERO;
                }

                // temperature and pressure thickness
                for (int l = 0; l < NUM_LEV; ++l) {
                    const int lo = l * NPP;
                    gradient_sphere(t + lo, dinv, rrearth, vbuf, 0);
                    for (int n = 0; n < NPP; ++n) {
                        const int ln = lo + n;
                        ac[AC_OMEGA + ln] += eta_ave_w * omega[ln];
                        const real_t ttens = -(u[ln] * vbuf[n] + v[ln] * vbuf[NPP + n]) +
                            kappa * tv[ln] * omega[ln];
                        out[OUT_T + ln] = spheremp[n] * (st[ST_TM1 + ln] + dt2 * ttens);
                        out[OUT_DP + ln] = spheremp[n] * (st[ST_DPM1 + ln] - dt2 * div[ln]);
                    }
                }
            }
        }
    }
}
`
